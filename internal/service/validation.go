package service

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"journal-reframer/internal/dto"
	"journal-reframer/internal/models"

	"github.com/go-playground/validator/v10"
)

const submissionDateLayout = "2006-01-02"

var fieldLabels = map[string]string{
	"fullName":        "Full name",
	"rollNumber":      "Roll number",
	"classAndSection": "Class & Section",
	"studyLevel":      "Study level",
	"yearAndTerm":     "Year & Term",
	"subjectName":     "Subject name",
	"assessmentName":  "Assessment name",
	"submissionDate":  "Date of submission",
	"creativity":      "Creativity",
	"humanize":        "Humanize",
	"email":           "Email",
	"password":        "Password",
	"token":           "Token",
	"refresh_token":   "Refresh token",
	"status":          "Status",
}

// NewValidator returns a validator that reports fields by their form (or
// JSON) name and knows the journal-specific tags.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := parseSubmissionDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("unitfloat", func(fl validator.FieldLevel) bool {
		_, err := parseCreativity(fl.Field().String())
		return err == nil
	})
	return v
}

func parseSubmissionDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(submissionDateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseCreativity(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, fmt.Errorf("creativity %v outside [0, 1]", v)
	}
	return v, nil
}

func fieldMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "isodate":
		return label + " must be a date in YYYY-MM-DD format."
	case "unitfloat":
		return label + " must be a number between 0 and 1."
	case "boolean":
		return label + " must be true or false."
	case "email":
		return "Please enter a valid email address."
	}
	return label + " is invalid."
}

// validateStruct runs struct validation and folds every field failure into a
// single *ValidationError.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return ve
}

// ParseJournalForm validates every text field of a submission at once and
// converts it into a JournalRequest without the document.
func ParseJournalForm(v *validator.Validate, form dto.JournalForm) (*models.JournalRequest, error) {
	form.FullName = strings.TrimSpace(form.FullName)
	form.RollNumber = strings.TrimSpace(form.RollNumber)
	form.ClassAndSection = strings.TrimSpace(form.ClassAndSection)
	form.YearAndTerm = strings.TrimSpace(form.YearAndTerm)
	form.SubjectName = strings.TrimSpace(form.SubjectName)
	form.AssessmentName = strings.TrimSpace(form.AssessmentName)

	if err := validateStruct(v, form); err != nil {
		return nil, err
	}

	date, _ := parseSubmissionDate(form.SubmissionDate)
	creativity, _ := parseCreativity(form.Creativity)
	humanize := false
	if form.Humanize != "" {
		humanize, _ = strconv.ParseBool(form.Humanize)
	}

	return &models.JournalRequest{
		FullName:        form.FullName,
		RollNumber:      form.RollNumber,
		ClassAndSection: form.ClassAndSection,
		StudyLevel:      models.StudyLevel(form.StudyLevel),
		YearAndTerm:     form.YearAndTerm,
		SubjectName:     form.SubjectName,
		AssessmentName:  form.AssessmentName,
		SubmissionDate:  date,
		Creativity:      creativity,
		Humanize:        humanize,
	}, nil
}

// CheckUpload applies the document rules in order: present, within limit,
// declared .docx.
func CheckUpload(u *Upload, maxBytes int64) error {
	if u == nil || u.Size <= 0 {
		return ErrDocumentRequired
	}
	if u.Size > maxBytes {
		return &UploadTooLargeError{Limit: maxBytes}
	}
	mediaType := strings.TrimSpace(strings.SplitN(u.ContentType, ";", 2)[0])
	if !strings.EqualFold(mediaType, models.DocxMIMEType) {
		return ErrUnsupportedDocument
	}
	return nil
}
