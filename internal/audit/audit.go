package audit

import (
	"context"
	"sync"

	"github.com/FalakNet/Account/model"
)

var auditRepo AuditEventRepository
var initOnce sync.Once

func Initialize(repo AuditEventRepository) {
	initOnce.Do(func() {
		auditRepo = repo
	})
}

const (
	ActionUserCreated    = "USER_CREATED"
	ActionUserLogin      = "USER_LOGIN"
	ActionSessionRevoked = "SESSION_REVOKED"
)

const (
	ResourceUser    = "user"
	ResourceAuth    = "auth"
	ResourceSession = "session"
)

// Origin is the network context of the request being audited.
type Origin struct {
	IP        string
	UserAgent string
}

func record(ctx context.Context, event *model.AuditEvent) error {
	if auditRepo == nil {
		return nil
	}
	return auditRepo.RecordEvent(ctx, event)
}

func RecordUserCreated(ctx context.Context, userID uint, origin Origin) error {
	return record(ctx, &model.AuditEvent{
		UserID:    userID,
		Action:    ActionUserCreated,
		Resource:  ResourceUser,
		IPAddress: origin.IP,
		UserAgent: origin.UserAgent,
	})
}

func RecordUserLogin(ctx context.Context, userID uint, origin Origin) error {
	return record(ctx, &model.AuditEvent{
		UserID:    userID,
		Action:    ActionUserLogin,
		Resource:  ResourceAuth,
		IPAddress: origin.IP,
		UserAgent: origin.UserAgent,
	})
}

func RecordSessionRevoked(ctx context.Context, userID uint, origin Origin) error {
	return record(ctx, &model.AuditEvent{
		UserID:    userID,
		Action:    ActionSessionRevoked,
		Resource:  ResourceSession,
		IPAddress: origin.IP,
		UserAgent: origin.UserAgent,
	})
}
