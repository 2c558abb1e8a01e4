package handlers

import (
	"journal-reframer/internal/dto"
	"journal-reframer/internal/service"
	"journal-reframer/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals(middleware.LocalUserID).(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

func getEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(middleware.LocalEmail).(string)
	return email
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
}

func badRequestBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
}

// respondError writes {error} with the user-facing message for err. Server
// side failures are logged with the full cause.
func respondError(c *fiber.Ctx, logger *zap.Logger, op string, err error) error {
	status := service.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error(op+" failed", zap.String("path", c.Path()), zap.Error(err))
	} else {
		logger.Warn(op+" rejected", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: service.UserMessage(err)})
}
