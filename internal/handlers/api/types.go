package api

import (
	"context"

	"github.com/FalakNet/Account/internal/sessions"
	"github.com/FalakNet/Account/model"
)

type SessionService interface {
	IssueSession(ctx context.Context, identityToken string, req sessions.RequestInfo) (*sessions.SessionGrant, error)
	RefreshSession(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*model.User, uint, error)
	ListSessions(ctx context.Context, userID uint) ([]sessions.SessionView, error)
	RevokeSession(ctx context.Context, userID uint, sessionID uint, req sessions.RequestInfo) error
	GetUser(ctx context.Context, userID uint) (*model.User, error)
	UpdateDisplayName(ctx context.Context, userID uint, displayName string) (*model.User, error)
}
