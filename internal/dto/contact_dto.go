package dto

import (
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
)

// ContactRequest is used for both create and full update.
type ContactRequest struct {
	FullName    string      `json:"full_name" validate:"required,min=3,max=50"`
	Email       string      `json:"email" validate:"required,email,max=150"`
	PhoneNumber string      `json:"phone_number" validate:"required,min=10,max=32"`
	Birthday    models.Date `json:"birthday" validate:"required"`
}

type ContactResponse struct {
	ID          uuid.UUID     `json:"id"`
	FullName    string        `json:"full_name"`
	Email       string        `json:"email"`
	PhoneNumber string        `json:"phone_number"`
	Birthday    models.Date   `json:"birthday"`
	User        *UserResponse `json:"user"`
}

func NewContactResponse(c *models.Contact) ContactResponse {
	resp := ContactResponse{
		ID:          c.ID,
		FullName:    c.FullName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Birthday:    c.Birthday,
	}
	if c.User != nil {
		u := NewUserResponse(c.User)
		resp.User = &u
	}
	return resp
}

func NewContactListResponse(contacts []models.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, NewContactResponse(&contacts[i]))
	}
	return out
}
