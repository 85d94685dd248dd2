package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/cache"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/database"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/repository"
)

type UserService struct {
	users    UserStore
	uploader AvatarUploader
	cache    cache.UserCache
}

func NewUserService(users UserStore, uploader AvatarUploader, userCache cache.UserCache) *UserService {
	return &UserService{users: users, uploader: uploader, cache: userCache}
}

// UpdateAvatar replaces the user's avatar image. The cached identity is
// refreshed once the change is committed.
func (s *UserService) UpdateAvatar(ctx context.Context, user *models.User, body io.Reader, size int64, contentType string) (*models.User, error) {
	url, err := s.uploader.Upload(ctx, "avatars/"+user.ID.String(), body, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	updated, err := s.users.UpdateAvatar(ctx, user.ID, url)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	database.AfterCommit(ctx, func() {
		if err := s.cache.Set(ctx, updated); err != nil {
			slog.Warn("identity cache write failed", "user_id", updated.ID.String(), "error", err)
		}
	})
	return updated, nil
}
