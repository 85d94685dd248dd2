package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/database"
)

// UnitOfWork runs each request inside one database transaction. It commits
// when the handler succeeds with a status below 500 and rolls back otherwise.
// Callbacks registered with database.AfterCommit run only after a commit.
func UnitOfWork(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tx := db.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return tx.Error
		}
		ctx := database.WithTx(c.UserContext(), tx)
		c.SetUserContext(ctx)

		committed := false
		defer func() {
			if !committed {
				if err := tx.Rollback().Error; err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) {
					slog.Error("transaction rollback failed", "path", c.Path(), "error", err)
				}
			}
		}()

		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			return nil
		}

		committed = true
		if err := tx.Commit().Error; err != nil {
			// A statement failure already answered 4xx leaves an aborted
			// transaction behind; keep that response.
			if c.Response().StatusCode() >= fiber.StatusBadRequest {
				slog.Warn("transaction commit failed", "path", c.Path(), "error", err)
				return nil
			}
			return err
		}
		database.RunAfterCommit(ctx)
		return nil
	}
}
