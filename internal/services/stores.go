package services

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
)

// UserStore is the credential store. Implemented by repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, current, next string) (bool, error)
	MarkVerified(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (*models.User, error)
}

// ContactStore is implemented by repository.ContactRepository. Every method
// is scoped to ownerID.
type ContactStore interface {
	List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Contact, error)
	Get(ctx context.Context, ownerID, contactID uuid.UUID) (*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) error
	Update(ctx context.Context, ownerID, contactID uuid.UUID, fields *models.Contact) (*models.Contact, error)
	Delete(ctx context.Context, ownerID, contactID uuid.UUID) error
}

type Mailer interface {
	SendVerification(ctx context.Context, to, username, token, baseURL string) error
}

// AvatarUploader stores an image under key and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}
