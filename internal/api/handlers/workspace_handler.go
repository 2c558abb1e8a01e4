package handlers

import (
	"context"

	"journal-reframer/internal/dto"
	"journal-reframer/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ViewResolver interface {
	ResolveView(ctx context.Context, userID, email, lastFilename string) (*service.WorkspaceView, error)
}

type WorkspaceHandler struct {
	views  ViewResolver
	logger *zap.Logger
}

func NewWorkspaceHandler(views ViewResolver, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		views:  views,
		logger: logger,
	}
}

// GetWorkspace godoc
// @Summary Resolve the workspace view
// @Description Returns which view the caller should see: admin, form, download, pending, banned, unknown or verifying.
// @Tags workspace
// @Produce json
// @Param filename query string false "Filename of the last generated journal held by the client"
// @Security Bearer
// @Success 200 {object} dto.WorkspaceResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/workspace [get]
func (h *WorkspaceHandler) GetWorkspace(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	view, err := h.views.ResolveView(c.UserContext(), userID.String(), getEmail(c), c.Query("filename"))
	if err != nil {
		return respondError(c, h.logger, "Workspace", err)
	}

	resp := dto.WorkspaceResponse{
		View:     string(view.Kind),
		Title:    view.Title,
		Message:  view.Message,
		Email:    view.Email,
		Status:   string(view.Status),
		CanWrite: view.CanGenerate(),
	}
	if view.Kind == service.ViewDownload {
		resp.Result = &dto.GeneratedJournalResponse{Filename: view.Filename}
	}
	return c.JSON(resp)
}
