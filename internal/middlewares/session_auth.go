package middlewares

import (
	"context"
	"strings"

	"github.com/FalakNet/Account/model"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

const (
	localUserKey      = "authUser"
	localSessionIDKey = "authSessionID"
)

// Authenticator resolves a session token to its user and session id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, uint, error)
}

func bearerToken(ctx *fiber.Ctx) string {
	header := ctx.Get(fiber.HeaderAuthorization)
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return token
	}
	return ""
}

// SessionAuth guards a route group with bearer session tokens.
func SessionAuth(auth Authenticator) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user, sessionID, err := auth.Authenticate(ctx.Context(), bearerToken(ctx))
		if err != nil {
			return err
		}
		ctx.Locals(localUserKey, user)
		ctx.Locals(localSessionIDKey, sessionID)
		return ctx.Next()
	}
}

// AuthUser returns the user set by SessionAuth, or nil.
func AuthUser(ctx *fiber.Ctx) *model.User {
	user, _ := ctx.Locals(localUserKey).(*model.User)
	return user
}

// AuthSessionID returns the session id set by SessionAuth, or zero.
func AuthSessionID(ctx *fiber.Ctx) uint {
	return cast.ToUint(ctx.Locals(localSessionIDKey))
}
