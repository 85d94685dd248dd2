package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/auth"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/cache"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/database"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/repository"
)

const mailTimeout = 30 * time.Second

type AuthService struct {
	users  UserStore
	hasher *auth.Hasher
	tokens *auth.Issuer
	cache  cache.UserCache
	mailer Mailer
}

func NewAuthService(users UserStore, hasher *auth.Hasher, tokens *auth.Issuer, userCache cache.UserCache, mailer Mailer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		cache:  userCache,
		mailer: mailer,
	}
}

// Signup creates an unverified user and mails a confirmation link in the
// background. baseURL is the externally visible root of the API.
func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest, baseURL string) (*models.User, error) {
	email := repository.NormalizeEmail(req.Email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    email,
		Password: hash,
		Avatar:   gravatarURL(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendVerification(ctx, user.Email, user.Username, baseURL)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidEmail
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}
	if !s.hasher.Verify(password, user.Password) {
		return nil, ErrInvalidPassword
	}

	pair, err := s.tokens.IssuePair(user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. Presenting a token that
// is no longer the stored one revokes the stored token as well.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*auth.TokenPair, error) {
	email, err := s.tokens.Decode(raw, auth.KindRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.RefreshToken == nil || *user.RefreshToken != raw {
		if err := s.users.SetRefreshToken(ctx, user.ID, nil); err != nil {
			slog.Error("failed to revoke refresh token", "user_id", user.ID.String(), "error", err)
		}
		return nil, ErrInvalidToken
	}

	pair, err := s.tokens.IssuePair(user.Email)
	if err != nil {
		return nil, err
	}
	rotated, err := s.users.RotateRefreshToken(ctx, user.ID, raw, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !rotated {
		return nil, ErrInvalidToken
	}
	return pair, nil
}

// CurrentUser resolves the owner of an access token, reading through the
// identity cache.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	email, err := s.tokens.Decode(accessToken, auth.KindAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.cache.Get(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("identity cache read failed", "error", err)
	}

	user, err = s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.cache.Set(ctx, user); err != nil {
		slog.Warn("identity cache write failed", "error", err)
	}
	return user, nil
}

// ConfirmEmail flips the verification flag. It reports true when the
// address had already been confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (bool, error) {
	email, err := s.tokens.Decode(token, auth.KindEmail)
	if err != nil {
		return false, ErrInvalidToken
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, ErrVerification
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.Verified {
		return true, nil
	}

	if err := s.users.MarkVerified(ctx, user.Email); err != nil {
		return false, fmt.Errorf("failed to confirm email: %w", err)
	}
	database.AfterCommit(ctx, func() {
		if err := s.cache.Invalidate(ctx, user.Email); err != nil {
			slog.Warn("identity cache invalidation failed", "error", err)
		}
	})
	return false, nil
}

// RequestEmail re-sends the confirmation link to unverified users. Unknown
// addresses are answered like unverified ones.
func (s *AuthService) RequestEmail(ctx context.Context, email, baseURL string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.Verified {
		return true, nil
	}

	s.sendVerification(ctx, user.Email, user.Username, baseURL)
	return false, nil
}

// sendVerification is fire-and-forget and starts only once the request's
// transaction has committed. Delivery failures are logged only.
func (s *AuthService) sendVerification(ctx context.Context, email, username, baseURL string) {
	token, err := s.tokens.IssueEmail(email)
	if err != nil {
		slog.Error("failed to issue email token", "error", err, "action", "send_verification")
		return
	}

	database.AfterCommit(ctx, func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
			defer cancel()
			if err := s.mailer.SendVerification(ctx, email, username, token, baseURL); err != nil {
				slog.Error("verification email failed", "error", err, "action", "send_verification")
			}
		}()
	})
}

func gravatarURL(email string) string {
	sum := md5.Sum([]byte(email))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon"
}
