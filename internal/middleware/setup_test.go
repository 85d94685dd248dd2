package middleware

import (
	"testing"

	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/testutil/pgtest"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return pgtest.DB(t)
}
