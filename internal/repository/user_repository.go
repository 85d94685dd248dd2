package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/database"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
)

// UserRepository is the credential store.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = NormalizeEmail(user.Email)
	return translate(database.Conn(ctx, r.db).Create(user).Error)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := database.Conn(ctx, r.db).
		Where("lower(email) = ?", NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error {
	return database.Conn(ctx, r.db).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token", token).Error
}

// RotateRefreshToken replaces the stored token only while it still equals
// current. It reports false when another request rotated it first.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, userID uuid.UUID, current, next string) (bool, error) {
	result := database.Conn(ctx, r.db).
		Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", userID, current).
		Update("refresh_token", next)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, email string) error {
	result := database.Conn(ctx, r.db).
		Model(&models.User{}).
		Where("lower(email) = ?", NormalizeEmail(email)).
		Update("verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) (*models.User, error) {
	conn := database.Conn(ctx, r.db)
	result := conn.Model(&models.User{}).Where("id = ?", userID).Update("avatar", url)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var user models.User
	if err := conn.First(&user, "id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
