// Package testutil provides in-memory doubles for the service-layer ports.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/repository"
)

// UserStore mirrors repository.UserRepository semantics in memory.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*models.User)}
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = repository.NormalizeEmail(user.Email)
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrDuplicate
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	stored := *user
	s.users[user.Email] = &stored
	return nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[repository.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (s *UserStore) byID(id uuid.UUID) *models.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *UserStore) SetRefreshToken(_ context.Context, userID uuid.UUID, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.byID(userID); u != nil {
		if token == nil {
			u.RefreshToken = nil
		} else {
			t := *token
			u.RefreshToken = &t
		}
	}
	return nil
}

func (s *UserStore) RotateRefreshToken(_ context.Context, userID uuid.UUID, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.byID(userID)
	if u == nil || u.RefreshToken == nil || *u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = &next
	return true, nil
}

func (s *UserStore) MarkVerified(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[repository.NormalizeEmail(email)]
	if !ok {
		return repository.ErrNotFound
	}
	u.Verified = true
	return nil
}

func (s *UserStore) UpdateAvatar(_ context.Context, userID uuid.UUID, url string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.byID(userID)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	u.Avatar = url
	out := *u
	return &out, nil
}

// ContactStore mirrors repository.ContactRepository semantics in memory,
// including owner scoping and email/phone uniqueness.
type ContactStore struct {
	mu       sync.Mutex
	contacts []*models.Contact
}

func NewContactStore() *ContactStore {
	return &ContactStore{}
}

func owned(c *models.Contact, ownerID uuid.UUID) bool {
	return c.UserID != nil && *c.UserID == ownerID
}

func (s *ContactStore) List(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Contact, 0)
	skipped := 0
	for _, c := range s.contacts {
		if !owned(c, ownerID) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *ContactStore) Get(_ context.Context, ownerID, contactID uuid.UUID) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.contacts {
		if c.ID == contactID && owned(c, ownerID) {
			out := *c
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *ContactStore) conflicts(skip uuid.UUID, email, phone string) bool {
	for _, c := range s.contacts {
		if c.ID == skip {
			continue
		}
		if c.Email == email || c.PhoneNumber == phone {
			return true
		}
	}
	return false
}

func (s *ContactStore) Create(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflicts(uuid.Nil, contact.Email, contact.PhoneNumber) {
		return repository.ErrDuplicate
	}
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	now := time.Now()
	contact.CreatedAt, contact.UpdatedAt = now, now

	stored := *contact
	stored.User = nil
	s.contacts = append(s.contacts, &stored)
	return nil
}

func (s *ContactStore) Update(_ context.Context, ownerID, contactID uuid.UUID, fields *models.Contact) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.contacts {
		if c.ID != contactID || !owned(c, ownerID) {
			continue
		}
		if s.conflicts(c.ID, fields.Email, fields.PhoneNumber) {
			return nil, repository.ErrDuplicate
		}
		c.FullName = fields.FullName
		c.Email = fields.Email
		c.PhoneNumber = fields.PhoneNumber
		c.Birthday = fields.Birthday
		c.UpdatedAt = time.Now()
		out := *c
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (s *ContactStore) Delete(_ context.Context, ownerID, contactID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.contacts {
		if c.ID == contactID && owned(c, ownerID) {
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			return nil
		}
	}
	return nil
}
