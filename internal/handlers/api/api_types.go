package api

import "github.com/FalakNet/Account/internal/sessions"

// ErrorBody is the JSON envelope for every failed request.
type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

type VerifyRequest struct {
	IdentityToken string `json:"identityToken"`
}

type VerifyResponse struct {
	Success   bool              `json:"success"`
	User      sessions.UserView `json:"user"`
	Token     string            `json:"token"`
	SessionID uint              `json:"sessionId"`
}

type RefreshRequest struct {
	Token string `json:"token"`
}

type RefreshResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type LogoutRequest struct {
	Token string `json:"token"`
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ProfileResponse struct {
	Success bool              `json:"success"`
	User    sessions.UserView `json:"user"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

type SessionListResponse struct {
	Success          bool                   `json:"success"`
	Sessions         []sessions.SessionView `json:"sessions"`
	CurrentSessionID uint                   `json:"currentSessionId"`
}
