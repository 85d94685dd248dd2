package models

import (
	"time"

	"github.com/google/uuid"
)

type Contact struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName    string     `gorm:"size:50;not null;index" json:"full_name"`
	Email       string     `gorm:"size:150;not null;uniqueIndex" json:"email"`
	PhoneNumber string     `gorm:"size:32;not null;uniqueIndex" json:"phone_number"`
	Birthday    Date       `json:"birthday"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
