package auth

import (
	"strings"

	"fishledger-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserNameKey = "user_name"
	CtxUserRoleKey = "user_role"
	CtxCallerKey   = "caller"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserNameKey, claims.Name)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxCallerKey, NewCaller(claims.UserID, claims.Name, claims.Role))

		return c.Next()
	}
}

// CallerFromCtx returns the caller set by JWTMiddleware. Requests that never
// passed the middleware get a caller without permissions.
func CallerFromCtx(c *fiber.Ctx) Caller {
	if caller, ok := c.Locals(CtxCallerKey).(Caller); ok {
		return caller
	}
	return Caller{}
}

func RequirePermission(want Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CallerFromCtx(c).Can(want) {
			return fiber.NewError(fiber.StatusForbidden, "you are not allowed to perform this action")
		}
		return c.Next()
	}
}
