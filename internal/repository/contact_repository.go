package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/database"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/scope"
)

// ContactRepository only ever touches rows owned by the given user.
type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Contact, error) {
	contacts := make([]models.Contact, 0)
	err := database.Conn(ctx, r.db).
		Scopes(scope.ForOwner(ownerID)).
		Preload("User").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *ContactRepository) Get(ctx context.Context, ownerID, contactID uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	err := database.Conn(ctx, r.db).
		Scopes(scope.ForOwner(ownerID)).
		Preload("User").
		Where("id = ?", contactID).
		First(&contact).Error
	if err != nil {
		return nil, translate(err)
	}
	return &contact, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	return translate(database.Conn(ctx, r.db).Omit("User").Create(contact).Error)
}

// Update overwrites the editable fields of an owned contact.
func (r *ContactRepository) Update(ctx context.Context, ownerID, contactID uuid.UUID, fields *models.Contact) (*models.Contact, error) {
	result := database.Conn(ctx, r.db).
		Model(&models.Contact{}).
		Scopes(scope.ForOwner(ownerID)).
		Where("id = ?", contactID).
		Updates(map[string]interface{}{
			"full_name":    fields.FullName,
			"email":        fields.Email,
			"phone_number": fields.PhoneNumber,
			"birthday":     fields.Birthday,
		})
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, ownerID, contactID)
}

func (r *ContactRepository) Delete(ctx context.Context, ownerID, contactID uuid.UUID) error {
	return database.Conn(ctx, r.db).
		Scopes(scope.ForOwner(ownerID)).
		Where("id = ?", contactID).
		Delete(&models.Contact{}).Error
}
