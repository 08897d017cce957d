package model

import "time"

// AuditEvent is an append-only record of a security-relevant action.
// Rows are never updated or deleted.
type AuditEvent struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint      `gorm:"index;not null"`
	Action    string    `gorm:"size:64;not null;index"` // USER_CREATED, USER_LOGIN, SESSION_REVOKED
	Resource  string    `gorm:"size:64;not null"`       // user, auth, session
	IPAddress string    `gorm:"size:45;not null"`
	UserAgent string    `gorm:"size:512;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AuditEvent) TableName() string {
	return "audit_log"
}
