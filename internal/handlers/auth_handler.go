package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// baseURL is the externally visible API root with a trailing slash.
func baseURL(c *fiber.Ctx) string {
	return c.BaseURL() + "/"
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.authService.Signup(c.UserContext(), &req, baseURL(c))
	if errors.Is(err, services.ErrConflict) {
		return errorJSON(c, fiber.StatusConflict, "Account already exists")
	}
	if err != nil {
		return internalError(c, "signup", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(user))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	pair, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid email")
	case errors.Is(err, services.ErrNotVerified):
		return errorJSON(c, fiber.StatusUnauthorized, "User not verified")
	case errors.Is(err, services.ErrInvalidPassword):
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid password")
	case err != nil:
		return internalError(c, "login", err)
	}

	return c.JSON(dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

// Refresh takes the refresh token as a bearer credential.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid refresh token")
	}

	pair, err := h.authService.Refresh(c.UserContext(), raw)
	if errors.Is(err, services.ErrInvalidToken) {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid refresh token")
	}
	if err != nil {
		return internalError(c, "refresh_token", err)
	}

	return c.JSON(dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	already, err := h.authService.ConfirmEmail(c.UserContext(), c.Params("token"))
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		return errorJSON(c, fiber.StatusUnprocessableEntity, "Invalid token for email verification")
	case errors.Is(err, services.ErrVerification):
		return errorJSON(c, fiber.StatusBadRequest, "Verification error")
	case err != nil:
		return internalError(c, "confirm_email", err)
	}

	if already {
		return c.JSON(dto.MessageResponse{Message: "Your email is already confirmed"})
	}
	return c.JSON(dto.MessageResponse{Message: "Email confirmed"})
}

func (h *AuthHandler) RequestEmail(c *fiber.Ctx) error {
	var req dto.RequestEmailRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	already, err := h.authService.RequestEmail(c.UserContext(), req.Email, baseURL(c))
	if err != nil {
		return internalError(c, "request_email", err)
	}

	if already {
		return c.JSON(dto.MessageResponse{Message: "Your email is already confirmed"})
	}
	return c.JSON(dto.MessageResponse{Message: "Check your email for confirmation."})
}
