package api

import (
	"github.com/FalakNet/Account/internal/sessions"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	sessionService SessionService
}

func requestInfo(ctx *fiber.Ctx) sessions.RequestInfo {
	return sessions.RequestInfo{
		IP:        ctx.IP(),
		UserAgent: ctx.Get(fiber.HeaderUserAgent),
	}
}

// PostVerify exchanges an identity token for an internal session token.
func (h *AuthHandler) PostVerify(ctx *fiber.Ctx) error {
	var body VerifyRequest
	if err := ctx.BodyParser(&body); err != nil && len(ctx.Body()) > 0 {
		return &sessions.ValidationError{Message: "malformed request body"}
	}

	grant, err := h.sessionService.IssueSession(ctx.Context(), body.IdentityToken, requestInfo(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(VerifyResponse{
		Success:   true,
		User:      grant.User,
		Token:     grant.Token,
		SessionID: grant.SessionID,
	})
}

// PostRefresh rotates a session token in place.
func (h *AuthHandler) PostRefresh(ctx *fiber.Ctx) error {
	var body RefreshRequest
	if err := ctx.BodyParser(&body); err != nil && len(ctx.Body()) > 0 {
		return &sessions.ValidationError{Message: "malformed request body"}
	}

	token, err := h.sessionService.RefreshSession(ctx.Context(), body.Token)
	if err != nil {
		return err
	}

	return ctx.JSON(RefreshResponse{
		Success: true,
		Token:   token,
	})
}

// PostLogout revokes the presented session token. Unknown or already
// revoked tokens still succeed.
func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	var body LogoutRequest
	if err := ctx.BodyParser(&body); err != nil && len(ctx.Body()) > 0 {
		return &sessions.ValidationError{Message: "malformed request body"}
	}

	if err := h.sessionService.Logout(ctx.Context(), body.Token); err != nil {
		return err
	}

	return ctx.JSON(LogoutResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

func NewAuthHandler(sessionService SessionService) *AuthHandler {
	return &AuthHandler{
		sessionService: sessionService,
	}
}
