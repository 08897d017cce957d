package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/FalakNet/Account/internal/sessions"
	"github.com/gofiber/fiber/v2"
)

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func respondError(ctx *fiber.Ctx, code int, kind string, message string) error {
	return ctx.Status(code).JSON(errorBody{
		Error:     kind,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// NewErrorHandler translates the error taxonomy into status codes and the
// JSON error envelope. Raw server-error messages are only echoed outside
// production mode.
func NewErrorHandler(production bool) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var (
			validationErr   *sessions.ValidationError
			unauthorizedErr *sessions.UnauthorizedError
			forbiddenErr    *sessions.ForbiddenError
			fiberErr        *fiber.Error
		)
		switch {
		case errors.As(err, &validationErr):
			return respondError(ctx, fiber.StatusBadRequest, "Validation Error", validationErr.Message)
		case errors.As(err, &unauthorizedErr):
			return respondError(ctx, fiber.StatusUnauthorized, "Unauthorized", unauthorizedErr.Message)
		case errors.As(err, &forbiddenErr):
			return respondError(ctx, fiber.StatusForbidden, "Forbidden", forbiddenErr.Message)
		case errors.As(err, &fiberErr):
			return respondError(ctx, fiberErr.Code, http.StatusText(fiberErr.Code), fiberErr.Message)
		}

		slog.Error("Unhandled error", "path", ctx.Path(), "error", err)
		message := err.Error()
		if production {
			message = "Something went wrong"
		}
		return respondError(ctx, fiber.StatusInternalServerError, "Server Error", message)
	}
}
