package api

import (
	"errors"

	"github.com/FalakNet/Account/internal/middlewares"
	"github.com/FalakNet/Account/internal/sessions"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

// UserHandler serves the authenticated account surface. Every route
// requires the SessionAuth middleware.
type UserHandler struct {
	sessionService SessionService
}

func (h *UserHandler) GetProfile(ctx *fiber.Ctx) error {
	user := middlewares.AuthUser(ctx)
	if user == nil {
		return fiber.ErrUnauthorized
	}
	return ctx.JSON(ProfileResponse{
		Success: true,
		User:    sessions.NewUserView(user),
	})
}

func (h *UserHandler) PutProfile(ctx *fiber.Ctx) error {
	user := middlewares.AuthUser(ctx)
	if user == nil {
		return fiber.ErrUnauthorized
	}

	var body UpdateProfileRequest
	if err := ctx.BodyParser(&body); err != nil {
		return &sessions.ValidationError{Message: "malformed request body"}
	}

	updated, err := h.sessionService.UpdateDisplayName(ctx.Context(), user.ID, body.DisplayName)
	if err != nil {
		return err
	}
	return ctx.JSON(ProfileResponse{
		Success: true,
		User:    sessions.NewUserView(updated),
	})
}

func (h *UserHandler) GetSessions(ctx *fiber.Ctx) error {
	user := middlewares.AuthUser(ctx)
	if user == nil {
		return fiber.ErrUnauthorized
	}

	views, err := h.sessionService.ListSessions(ctx.Context(), user.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(SessionListResponse{
		Success:          true,
		Sessions:         views,
		CurrentSessionID: middlewares.AuthSessionID(ctx),
	})
}

func (h *UserHandler) DeleteSession(ctx *fiber.Ctx) error {
	user := middlewares.AuthUser(ctx)
	if user == nil {
		return fiber.ErrUnauthorized
	}

	sessionID := cast.ToUint(ctx.Params("sessionId"))
	if sessionID == 0 {
		return &sessions.ValidationError{Message: "invalid session id"}
	}

	err := h.sessionService.RevokeSession(ctx.Context(), user.ID, sessionID, requestInfo(ctx))
	if errors.Is(err, sessions.ErrSessionNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ctx.JSON(LogoutResponse{
		Success: true,
		Message: "Session revoked",
	})
}

func NewUserHandler(sessionService SessionService) *UserHandler {
	return &UserHandler{
		sessionService: sessionService,
	}
}
