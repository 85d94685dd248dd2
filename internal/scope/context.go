package scope

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
)

const currentUserKey = "current_user"

var ErrNoCurrentUser = errors.New("no authenticated user in context")

// SetCurrentUser stores the user resolved by the bearer guard.
func SetCurrentUser(c *fiber.Ctx, user *models.User) {
	c.Locals(currentUserKey, user)
}

// CurrentUser returns the user stored by the bearer guard.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals(currentUserKey).(*models.User)
	if !ok || user == nil {
		return nil, ErrNoCurrentUser
	}
	return user, nil
}
