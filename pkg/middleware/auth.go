package middleware

import (
	"context"
	"strings"

	"journal-reframer/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Locals keys set by AuthMiddleware.
const (
	LocalUserID = "userID"
	LocalEmail  = "email"
)

func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		if token == "" {
			logger.Warn("Missing authorization token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}

		// Remove "Bearer " prefix if present
		if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
			token = token[7:]
		}

		claims, err := jwtManager.ValidateToken(token, auth.KindAccess)
		if err != nil {
			logger.Warn("Invalid token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)

		return c.Next()
	}
}

// RequireAdmin lets through only the account whose email matches adminEmail.
// It must run after AuthMiddleware.
func RequireAdmin(adminEmail string, logger *zap.Logger) fiber.Handler {
	adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
	return func(c *fiber.Ctx) error {
		email, _ := c.Locals(LocalEmail).(string)
		if adminEmail == "" || strings.ToLower(email) != adminEmail {
			logger.Warn("Admin route refused", zap.String("email", email), zap.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

// AccountGate decides whether a user may use gated features. notice explains
// a refusal to the user.
type AccountGate interface {
	Allow(ctx context.Context, userID string) (ok bool, notice string, err error)
}

// RequireActive blocks callers whose account the gate refuses.
func RequireActive(gate AccountGate, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(LocalUserID).(string)
		ok, notice, err := gate.Allow(c.UserContext(), userID)
		if err != nil {
			logger.Error("Account gate failed", zap.String("user_id", userID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to verify account status",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": notice,
			})
		}
		return c.Next()
	}
}
