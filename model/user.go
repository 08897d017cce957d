package model

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors one account at the external identity provider. Lookups are
// always by Subject, never by email.
type User struct {
	ID            uint   `gorm:"primarykey"`
	Subject       string `gorm:"uniqueIndex;size:128;not null"` // external subject id, immutable once set
	Email         string `gorm:"size:256;not null"`
	DisplayName   string `gorm:"size:128"`
	EmailVerified bool   `gorm:"default:false;not null"`
	LastLoginAt   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == 0 {
		u.ID = GenerateID()
	}
	return nil
}
