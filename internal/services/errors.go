package services

import (
	"errors"
	"fmt"
)

var (
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email", ErrInvalidCredentials)
	ErrInvalidPassword    = fmt.Errorf("%w: invalid password", ErrInvalidCredentials)
	ErrNotVerified        = errors.New("user not verified")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("could not validate credentials")
	ErrNotFound           = errors.New("not found")
	ErrVerification       = errors.New("verification error")
	ErrInvalidPage        = errors.New("invalid page")
	ErrInvalidLimit       = fmt.Errorf("%w: limit out of range", ErrInvalidPage)
	ErrInvalidOffset      = fmt.Errorf("%w: negative offset", ErrInvalidPage)
)
