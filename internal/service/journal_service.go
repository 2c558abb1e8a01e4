package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"journal-reframer/internal/dto"
	"journal-reframer/internal/models"
	"journal-reframer/pkg/cache"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Upload is the document part of a submission. Open is only called once the
// form and size checks pass.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type Rephraser interface {
	Rephrase(ctx context.Context, text string, creativity float64, humanize bool) (*models.RephrasedContent, error)
}

type DocumentBuilder interface {
	Build(req *models.JournalRequest, content *models.RephrasedContent) (*models.GeneratedDocument, error)
}

// TextExtractor returns the plain text of a .docx buffer.
type TextExtractor func(content []byte) (string, error)

// JournalService runs one submission through validation, extraction,
// rephrasing and layout.
type JournalService struct {
	validate  *validator.Validate
	extract   TextExtractor
	rephraser Rephraser
	builder   DocumentBuilder
	views     cache.ViewCache
	maxUpload int64
	logger    *zap.Logger
}

func NewJournalService(
	validate *validator.Validate,
	extract TextExtractor,
	rephraser Rephraser,
	builder DocumentBuilder,
	views cache.ViewCache,
	maxUpload int64,
	logger *zap.Logger,
) *JournalService {
	return &JournalService{
		validate:  validate,
		extract:   extract,
		rephraser: rephraser,
		builder:   builder,
		views:     views,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

func (s *JournalService) Generate(ctx context.Context, userID string, form dto.JournalForm, upload *Upload) (*models.GeneratedDocument, error) {
	req, err := ParseJournalForm(s.validate, form)
	if err != nil {
		return nil, err
	}
	if err := CheckUpload(upload, s.maxUpload); err != nil {
		return nil, err
	}

	content, err := s.readUpload(upload)
	if err != nil {
		return nil, err
	}
	req.Document = content
	req.DocumentName = upload.Name
	req.DocumentType = upload.ContentType
	req.DocumentSize = upload.Size

	text, err := s.extract(content)
	if err != nil {
		s.logger.Warn("Text extraction failed",
			zap.String("user_id", userID),
			zap.String("file", upload.Name),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrNoExtractableText, err)
	}
	text = cleanText(text)
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoExtractableText
	}

	rephrased, err := s.rephraser.Rephrase(ctx, text, req.Creativity, req.Humanize)
	if err != nil {
		return nil, err
	}

	doc, err := s.builder.Build(req, rephrased)
	if err != nil {
		return nil, err
	}

	if err := s.views.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate workspace view", zap.String("user_id", userID), zap.Error(err))
	}

	s.logger.Info("Journal generated",
		zap.String("user_id", userID),
		zap.String("filename", doc.Filename),
		zap.Int("size", len(doc.Content)),
	)
	return doc, nil
}

func (s *JournalService) readUpload(u *Upload) ([]byte, error) {
	if u.Open == nil {
		return nil, ErrDocumentRequired
	}
	rc, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, s.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxUpload {
		return nil, &UploadTooLargeError{Limit: s.maxUpload}
	}
	if len(data) == 0 {
		return nil, ErrDocumentRequired
	}
	return data, nil
}
