package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name             string     `gorm:"not null" json:"name"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	Role             string     `gorm:"not null" json:"role"` // DONOR or RECEIVER
	Bio              string     `json:"bio"`
	Avatar           string     `json:"avatar"`
	Phone            string     `json:"phone"`
	Location         string     `json:"location"`
	Gender           string     `json:"gender"`
	DOB              *time.Time `json:"dob,omitempty"`
	Interests        string     `json:"interests"`
	OrganizationName string     `json:"organization_name"`
	IsVerified       bool       `json:"is_verified"`
	IsFirstLogin     bool       `json:"is_first_login"`
	ProfileCompleted bool       `json:"profile_completed"`
	OTP              *string    `json:"-"`
	OTPExpiry        *time.Time `json:"-"`

	Timestamp
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
