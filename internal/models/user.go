package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the credential record. Email is stored lower-cased.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username     string    `gorm:"size:50;not null" json:"username"`
	Email        string    `gorm:"size:150;not null;uniqueIndex" json:"email"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	Avatar       string    `gorm:"size:255;not null;default:''" json:"avatar"`
	RefreshToken *string   `gorm:"type:text" json:"-"`
	Verified     bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
