package model

import (
	"time"

	"gorm.io/gorm"
)

// Session is one issued credential. It is usable only while IsActive is set
// and ExpiresAt is in the future; rotation rewrites SessionToken in place.
type Session struct {
	ID           uint   `gorm:"primarykey"`
	UserID       uint   `gorm:"index;not null"`
	SessionToken string `gorm:"uniqueIndex;size:512;not null"`
	DeviceInfo   string `gorm:"size:512"`
	IPAddress    string `gorm:"size:45"`
	UserAgent    string `gorm:"size:512"`
	ExpiresAt    time.Time `gorm:"index;not null"`
	IsActive     bool      `gorm:"default:true;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == 0 {
		s.ID = GenerateID()
	}
	return nil
}
