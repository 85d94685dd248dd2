package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/repository"
)

const (
	DefaultPageSize = 10
	MinPageSize     = 10
	MaxPageSize     = 500
)

type ContactService struct {
	contacts ContactStore
}

func NewContactService(contacts ContactStore) *ContactService {
	return &ContactService{contacts: contacts}
}

// ValidatePage rejects a limit outside [MinPageSize, MaxPageSize] and a
// negative offset.
func ValidatePage(limit, offset int) error {
	if limit < MinPageSize || limit > MaxPageSize {
		return ErrInvalidLimit
	}
	if offset < 0 {
		return ErrInvalidOffset
	}
	return nil
}

func (s *ContactService) List(ctx context.Context, owner *models.User, limit, offset int) ([]models.Contact, error) {
	if err := ValidatePage(limit, offset); err != nil {
		return nil, err
	}
	contacts, err := s.contacts.List(ctx, owner.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Get(ctx context.Context, owner *models.User, contactID uuid.UUID) (*models.Contact, error) {
	contact, err := s.contacts.Get(ctx, owner.ID, contactID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

func (s *ContactService) Create(ctx context.Context, owner *models.User, req *dto.ContactRequest) (*models.Contact, error) {
	ownerID := owner.ID
	contact := &models.Contact{
		ID:          uuid.New(),
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    req.Birthday,
		UserID:      &ownerID,
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	contact.User = owner
	return contact, nil
}

func (s *ContactService) Update(ctx context.Context, owner *models.User, contactID uuid.UUID, req *dto.ContactRequest) (*models.Contact, error) {
	contact, err := s.contacts.Update(ctx, owner.ID, contactID, &models.Contact{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    req.Birthday,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrConflict
	case err != nil:
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

// Delete is idempotent: unknown or foreign ids are a no-op.
func (s *ContactService) Delete(ctx context.Context, owner *models.User, contactID uuid.UUID) error {
	if err := s.contacts.Delete(ctx, owner.ID, contactID); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}
