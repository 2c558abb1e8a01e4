package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"

	"journal-reframer/internal/dto"
	"journal-reframer/internal/models"
	"journal-reframer/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// JournalGenerator produces a reflective journal from one submission.
type JournalGenerator interface {
	Generate(ctx context.Context, userID string, form dto.JournalForm, upload *service.Upload) (*models.GeneratedDocument, error)
}

type JournalHandler struct {
	journals JournalGenerator
	logger   *zap.Logger
}

func NewJournalHandler(journals JournalGenerator, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{
		journals: journals,
		logger:   logger,
	}
}

// GenerateJournal godoc
// @Summary Generate a reflective journal
// @Description Rephrase an uploaded .docx into a formatted reflective journal. Requires an active account.
// @Tags journals
// @Accept multipart/form-data
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Param fullName formData string true "Student full name"
// @Param rollNumber formData string true "Roll number"
// @Param classAndSection formData string true "Class and section"
// @Param studyLevel formData string true "UG or PG"
// @Param yearAndTerm formData string true "Year and term"
// @Param subjectName formData string true "Subject name"
// @Param assessmentName formData string true "Assessment name"
// @Param submissionDate formData string true "Submission date (YYYY-MM-DD)"
// @Param creativity formData number true "Creativity between 0 and 1"
// @Param humanize formData boolean false "Use a conversational tone"
// @Param document formData file true "Source .docx (at most JOURNAL_MAX_UPLOAD_MB, 10MB by default)"
// @Param download query bool false "Stream the .docx instead of JSON"
// @Security Bearer
// @Success 200 {object} dto.GeneratedJournalResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 415 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/journals/generate [post]
func (h *JournalHandler) GenerateJournal(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var form dto.JournalForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid form data"})
	}

	var upload *service.Upload
	if fh, err := c.FormFile("document"); err == nil {
		upload = uploadFromHeader(fh)
	}

	doc, err := h.journals.Generate(c.UserContext(), userID.String(), form, upload)
	if err != nil {
		return respondError(c, h.logger, "Journal generation", err)
	}

	if c.QueryBool("download") {
		c.Set(fiber.HeaderContentType, models.DocxMIMEType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
		return c.Send(doc.Content)
	}

	return c.JSON(dto.GeneratedJournalResponse{
		Filename: doc.Filename,
		Content:  base64.StdEncoding.EncodeToString(doc.Content),
	})
}

func uploadFromHeader(fh *multipart.FileHeader) *service.Upload {
	return &service.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
