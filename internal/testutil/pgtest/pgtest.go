// Package pgtest starts one migrated Postgres container per test binary.
package pgtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/database"
)

var (
	containerOnce sync.Once
	sharedDB      *gorm.DB
	containerErr  error
)

// DB returns a migrated database with empty tables. Skipped under -short.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	containerOnce.Do(func() {
		ctx := context.Background()
		pg, err := postgres.Run(ctx, "postgres:16-alpine",
			postgres.WithDatabase("contacts_test"),
			postgres.WithUsername("user"),
			postgres.WithPassword("password"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			containerErr = err
			return
		}

		dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			containerErr = err
			return
		}

		sharedDB, containerErr = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if containerErr != nil {
			return
		}
		containerErr = database.Migrate(ctx, sharedDB)
	})
	require.NoError(t, containerErr)

	require.NoError(t, sharedDB.Exec("TRUNCATE contacts, users, system_logs CASCADE").Error)
	return sharedDB
}
