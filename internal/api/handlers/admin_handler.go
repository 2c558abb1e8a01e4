package handlers

import (
	"context"
	"fmt"

	"journal-reframer/internal/dto"
	"journal-reframer/internal/models"
	"journal-reframer/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AccountAdmin is the management side of the account gate.
type AccountAdmin interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	SetStatusAsync(ctx context.Context, userID, status string) (models.AccountStatus, error)
}

type AdminHandler struct {
	accounts AccountAdmin
	logger   *zap.Logger
}

func NewAdminHandler(accounts AccountAdmin, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// ListUsers godoc
// @Summary List user profiles
// @Description All profiles, newest first. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.UserListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.accounts.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "List users", err)
	}

	resp := dto.UserListResponse{Users: make([]dto.UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, service.UserResponse(u))
	}
	return c.JSON(resp)
}

// UpdateUserStatus godoc
// @Summary Change a user's account status
// @Description Approve, ban or unban a user. The change is applied in the background; the response does not wait for it.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body dto.UpdateStatusRequest true "New status"
// @Security Bearer
// @Success 202 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/v1/admin/users/{id}/status [patch]
func (h *AdminHandler) UpdateUserStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequestBody(c)
	}

	status, err := h.accounts.SetStatusAsync(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, h.logger, "Status change", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{
		Message: fmt.Sprintf("User status has been changed to %s.", status),
	})
}
