package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/scope"
	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/services"
)

const notFoundDetail = "NOT FOUND"

type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func contactID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

// queryInt reads an optional integer query parameter. Absent means def.
func queryInt(c *fiber.Ctx, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

func (h *ContactHandler) List(c *fiber.Ctx) error {
	owner, err := scope.CurrentUser(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}

	limit, ok := queryInt(c, "limit", services.DefaultPageSize)
	if !ok {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "limit: must be an integer")
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "offset: must be an integer")
	}
	switch err := services.ValidatePage(limit, offset); {
	case errors.Is(err, services.ErrInvalidLimit):
		return errorJSON(c, fiber.StatusUnprocessableEntity,
			fmt.Sprintf("limit: must be between %d and %d", services.MinPageSize, services.MaxPageSize))
	case errors.Is(err, services.ErrInvalidOffset):
		return errorJSON(c, fiber.StatusUnprocessableEntity, "offset: must be greater than or equal to 0")
	}

	contacts, err := h.contactService.List(c.UserContext(), owner, limit, offset)
	if err != nil {
		return internalError(c, "list_contacts", err)
	}
	return c.JSON(dto.NewContactListResponse(contacts))
}

func (h *ContactHandler) Get(c *fiber.Ctx) error {
	owner, err := scope.CurrentUser(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}
	id, ok := contactID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid contact ID")
	}

	contact, err := h.contactService.Get(c.UserContext(), owner, id)
	if errors.Is(err, services.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, notFoundDetail)
	}
	if err != nil {
		return internalError(c, "get_contact", err)
	}
	return c.JSON(dto.NewContactResponse(contact))
}

func (h *ContactHandler) Create(c *fiber.Ctx) error {
	owner, err := scope.CurrentUser(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}

	var req dto.ContactRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	contact, err := h.contactService.Create(c.UserContext(), owner, &req)
	if errors.Is(err, services.ErrConflict) {
		return errorJSON(c, fiber.StatusConflict, "Contact with this email or phone number already exists")
	}
	if err != nil {
		return internalError(c, "create_contact", err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewContactResponse(contact))
}

func (h *ContactHandler) Update(c *fiber.Ctx) error {
	owner, err := scope.CurrentUser(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}
	id, ok := contactID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid contact ID")
	}

	var req dto.ContactRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	contact, err := h.contactService.Update(c.UserContext(), owner, id, &req)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, notFoundDetail)
	case errors.Is(err, services.ErrConflict):
		return errorJSON(c, fiber.StatusConflict, "Contact with this email or phone number already exists")
	case err != nil:
		return internalError(c, "update_contact", err)
	}
	return c.JSON(dto.NewContactResponse(contact))
}

func (h *ContactHandler) Delete(c *fiber.Ctx) error {
	owner, err := scope.CurrentUser(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Could not validate credentials")
	}
	id, ok := contactID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid contact ID")
	}

	if err := h.contactService.Delete(c.UserContext(), owner, id); err != nil {
		return internalError(c, "delete_contact", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
