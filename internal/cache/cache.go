// Package cache holds the read-through identity cache used when resolving the
// current user from an access token.
package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
)

var ErrMiss = errors.New("cache miss")

// UserCache is keyed by the identity carried in access tokens (the email).
type UserCache interface {
	Get(ctx context.Context, email string) (*models.User, error)
	Set(ctx context.Context, user *models.User) error
	Invalidate(ctx context.Context, email string) error
}

func userKey(email string) string {
	return "user:" + strings.ToLower(email)
}
