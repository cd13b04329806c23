// File: internal/domain/user.go
package domain

import (
	"errors"
	"time"
)

// User is the local record of an identity verified by the external identity
// provider. ExternalID holds the provider's subject claim.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	ExternalID   string    `gorm:"size:191;not null;uniqueIndex" json:"-"`
	Email        string    `gorm:"size:255" json:"email"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	ProfileColor string    `gorm:"size:16" json:"profile_color"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsValid() error {
	if u.ExternalID == "" {
		return errors.New("external identity is required")
	}
	return nil
}
