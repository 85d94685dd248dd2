package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
)

type memoryEntry struct {
	user      models.User
	expiresAt time.Time
}

// Memory is an in-process UserCache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	entry, ok := m.entries[userKey(email)]
	m.mu.RUnlock()

	if !ok || (m.ttl > 0 && m.now().After(entry.expiresAt)) {
		return nil, ErrMiss
	}
	user := entry.user
	return &user, nil
}

func (m *Memory) Set(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userKey(user.Email)] = memoryEntry{
		user:      *user,
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userKey(email))
	return nil
}
