package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/scope"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := scope.CurrentUser(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}
	return c.JSON(dto.NewUserResponse(user))
}

// UpdateAvatar expects the image in the multipart field "file".
func (h *UserHandler) UpdateAvatar(c *fiber.Ctx) error {
	user, err := scope.CurrentUser(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "file: field required")
	}
	contentType := fh.Header.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "file: must be an image")
	}

	f, err := fh.Open()
	if err != nil {
		return internalError(c, "update_avatar", err)
	}
	defer f.Close()

	updated, err := h.userService.UpdateAvatar(c.UserContext(), user, f, fh.Size, contentType)
	if errors.Is(err, services.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, notFoundDetail)
	}
	if err != nil {
		return internalError(c, "update_avatar", err)
	}
	return c.JSON(dto.NewUserResponse(updated))
}
