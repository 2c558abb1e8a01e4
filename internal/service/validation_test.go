package service

import (
	"errors"
	"strings"
	"testing"

	"journal-reframer/internal/dto"
	"journal-reframer/internal/models"
)

func validForm() dto.JournalForm {
	return dto.JournalForm{
		FullName:        "Ana O'Brien",
		RollNumber:      "R-42",
		ClassAndSection: "CS-B",
		StudyLevel:      "UG",
		YearAndTerm:     "2025 Fall",
		SubjectName:     "Physics",
		AssessmentName:  "Lab Journal 3",
		SubmissionDate:  "2025-10-01",
		Creativity:      "0.7",
		Humanize:        "true",
	}
}

func TestParseJournalFormValid(t *testing.T) {
	req, err := ParseJournalForm(NewValidator(), validForm())
	if err != nil {
		t.Fatalf("ParseJournalForm: %v", err)
	}
	if req.StudyLevel != models.StudyLevelUG || req.Creativity != 0.7 || !req.Humanize {
		t.Fatalf("req = %+v", req)
	}
	if got := req.SubmissionDate.Format(submissionDateLayout); got != "2025-10-01" {
		t.Fatalf("date = %s", got)
	}
}

func TestParseJournalFormDefaults(t *testing.T) {
	form := validForm()
	form.Humanize = ""
	form.SubmissionDate = "2025-10-01T09:30:00Z"
	req, err := ParseJournalForm(NewValidator(), form)
	if err != nil {
		t.Fatalf("ParseJournalForm: %v", err)
	}
	if req.Humanize {
		t.Fatal("absent humanize must be false")
	}
	if req.SubmissionDate.Format(submissionDateLayout) != "2025-10-01" {
		t.Fatalf("date = %v", req.SubmissionDate)
	}
}

func TestParseJournalFormAggregatesFailures(t *testing.T) {
	form := validForm()
	form.FullName = ""
	form.StudyLevel = "PhD"
	form.Creativity = "1.5"

	_, err := ParseJournalForm(NewValidator(), form)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if len(ve.Fields) != 3 {
		t.Fatalf("fields = %+v", ve.Fields)
	}
	msg := ve.Error()
	for _, want := range []string{
		"Invalid form data: ",
		"fullName - Full name must be at least 2 characters.",
		"studyLevel - Study level must be one of UG, PG.",
		"creativity - Creativity must be a number between 0 and 1.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestParseJournalFormRejects(t *testing.T) {
	cases := map[string]func(*dto.JournalForm){
		"short subject":   func(f *dto.JournalForm) { f.SubjectName = "PE" },
		"long assessment": func(f *dto.JournalForm) { f.AssessmentName = strings.Repeat("a", 201) },
		"bad date":        func(f *dto.JournalForm) { f.SubmissionDate = "01/10/2025" },
		"bad humanize":    func(f *dto.JournalForm) { f.Humanize = "maybe" },
		"nan creativity":  func(f *dto.JournalForm) { f.Creativity = "NaN" },
		"blank roll":      func(f *dto.JournalForm) { f.RollNumber = "   " },
	}
	v := NewValidator()
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			form := validForm()
			mutate(&form)
			var ve *ValidationError
			if _, err := ParseJournalForm(v, form); !errors.As(err, &ve) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestCheckUploadOrder(t *testing.T) {
	const limit = 10 << 20
	cases := []struct {
		name   string
		upload *Upload
		want   error
	}{
		{"missing", nil, ErrDocumentRequired},
		{"empty", &Upload{Size: 0, ContentType: models.DocxMIMEType}, ErrDocumentRequired},
		{"too large beats type", &Upload{Size: limit + 1, ContentType: "application/pdf"}, ErrDocumentTooLarge},
		{"wrong type", &Upload{Size: 10, ContentType: "application/msword"}, ErrUnsupportedDocument},
		{"ok", &Upload{Size: limit, ContentType: models.DocxMIMEType + "; charset=binary"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := CheckUpload(tc.upload, limit); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCheckUploadReportsConfiguredLimit(t *testing.T) {
	err := CheckUpload(&Upload{Size: 6 << 20, ContentType: models.DocxMIMEType}, 5<<20)
	var tl *UploadTooLargeError
	if !errors.As(err, &tl) || tl.Limit != 5<<20 {
		t.Fatalf("err = %v", err)
	}
	if msg := UserMessage(err); msg != "File size must be less than 5MB." {
		t.Fatalf("message = %q", msg)
	}
}
