package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
)

type memoryStore struct {
	mu   sync.Mutex
	logs []models.SystemLog
}

func (s *memoryStore) SaveLogs(_ context.Context, logs []models.SystemLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, logs...)
	return nil
}

func (s *memoryStore) saved() []models.SystemLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SystemLog(nil), s.logs...)
}

func TestPGHandler_BatchesErrors(t *testing.T) {
	store := &memoryStore{}
	h := NewPGHandler(store)
	logger := slog.New(h).With("request_id", "req-42")

	logger.Info("ignored")
	logger.Error("signup failed",
		"action", "signup",
		"error", "boom",
		"user_id", "u-1",
		"latency_ms", 12.6,
		"path", "/api/auth/signup",
	)
	h.Stop()

	logs := store.saved()
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "signup failed", entry.Message)
	assert.Equal(t, "req-42", entry.RequestID)
	assert.Equal(t, "signup", entry.Action)
	assert.Equal(t, "boom", entry.Error)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "u-1", *entry.UserID)
	assert.Equal(t, 13, entry.LatencyMs)

	var extra map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Extra, &extra))
	assert.Equal(t, "/api/auth/signup", extra["path"])
}

func TestPGHandler_FlushesFullBatch(t *testing.T) {
	store := &memoryStore{}
	h := NewPGHandler(store)
	logger := slog.New(h)

	for i := 0; i < batchSize+5; i++ {
		logger.Error("failure", "n", i)
	}
	h.Stop()

	assert.Len(t, store.saved(), batchSize+5)
}
