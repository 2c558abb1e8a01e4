package service

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	ErrDocumentRequired    = errors.New("document is required")
	ErrDocumentTooLarge    = errors.New("document exceeds the upload limit")
	ErrUnsupportedDocument = errors.New("document is not a .docx file")
	ErrNoExtractableText   = errors.New("no text could be extracted from the document")
	ErrNoStructuredContent = errors.New("model returned no structured content")
	ErrHeaderImageNotFound = errors.New("header image not found")

	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrReservedEmail      = errors.New("email is reserved")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidStatus      = errors.New("invalid status")
)

// FieldError names one failed form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates every failed field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" - "+f.Message)
	}
	return "Invalid form data: " + strings.Join(parts, ", ")
}

// HeaderImageError reports the missing header asset and where it was looked for.
type HeaderImageError struct {
	Path string
	Err  error
}

func (e *HeaderImageError) Error() string {
	return fmt.Sprintf("header image %s: %v", e.Path, e.Err)
}

func (e *HeaderImageError) Unwrap() []error {
	return []error{ErrHeaderImageNotFound, e.Err}
}

// UploadTooLargeError carries the limit the upload exceeded.
type UploadTooLargeError struct {
	Limit int64
}

func (e *UploadTooLargeError) Error() string {
	return fmt.Sprintf("document exceeds the upload limit of %d bytes", e.Limit)
}

func (e *UploadTooLargeError) Unwrap() error {
	return ErrDocumentTooLarge
}

// formatLimit renders a byte count in megabytes, e.g. "10MB" or "2.5MB".
func formatLimit(n int64) string {
	return strconv.FormatFloat(float64(n)/(1<<20), 'f', -1, 64) + "MB"
}

// UserMessage turns err into text that is safe to show to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var he *HeaderImageError
	if errors.As(err, &he) {
		return fmt.Sprintf("Header image not found at '%s'. Please ensure the file exists.", he.Path)
	}
	var tl *UploadTooLargeError
	if errors.As(err, &tl) {
		return fmt.Sprintf("File size must be less than %s.", formatLimit(tl.Limit))
	}

	switch {
	case errors.Is(err, ErrDocumentRequired):
		return "Document is required."
	case errors.Is(err, ErrDocumentTooLarge):
		return "File size exceeds the upload limit."
	case errors.Is(err, ErrUnsupportedDocument):
		return "Only .docx files are accepted."
	case errors.Is(err, ErrNoExtractableText):
		return "Could not extract any text from the document. Please ensure it's not empty or corrupted."
	case errors.Is(err, ErrNoStructuredContent):
		return "The AI model did not return any output."
	case errors.Is(err, ErrUserExists):
		return "An account with this email already exists."
	case errors.Is(err, ErrReservedEmail):
		return "This email address cannot be used to register."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrUserNotFound):
		return "User not found."
	case errors.Is(err, ErrInvalidTransition):
		return "This status change is not allowed."
	case errors.Is(err, ErrInvalidStatus):
		return "Status must be active or banned."
	}
	return fmt.Sprintf("Error: %s. Please check the server logs for more details.", err.Error())
}

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	var ve *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve),
		errors.Is(err, ErrDocumentRequired),
		errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrNoExtractableText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNoStructuredContent):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserExists), errors.Is(err, ErrReservedEmail), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
