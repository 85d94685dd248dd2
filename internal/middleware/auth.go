package middleware

import (
	"context"
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/auth"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/scope"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/services"
)

const credentialsDetail = "Could not validate credentials"

// UserResolver maps a verified access token to its owner.
type UserResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
}

func unauthorized(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Detail: credentialsDetail})
}

// JWTProtected checks the bearer signature and expiry. Token kind and the
// owning user are checked by RequireUser.
func JWTProtected(tokens *auth.Issuer) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: tokens.Algorithm(), Key: tokens.Secret()},
		Claims:     &auth.Claims{},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

// RequireUser resolves the user behind the token stored by JWTProtected and
// makes it available through scope.CurrentUser.
func RequireUser(resolver UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return unauthorized(c)
		}

		user, err := resolver.CurrentUser(c.UserContext(), token.Raw)
		if errors.Is(err, services.ErrUnauthorized) {
			return unauthorized(c)
		}
		if err != nil {
			return err
		}

		scope.SetCurrentUser(c, user)
		return c.Next()
	}
}
