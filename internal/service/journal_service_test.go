package service

import (
	"context"
	"errors"
	"testing"

	"journal-reframer/internal/docx"
	"journal-reframer/internal/models"

	"go.uber.org/zap"
)

const testMaxUpload = 10 << 20

func newJournalService(t *testing.T, r Rephraser, views *recordingCache) *JournalService {
	t.Helper()
	builder := NewJournalBuilder(writeHeaderPNG(t), zap.NewNop())
	return NewJournalService(NewValidator(), docx.ExtractText, r, builder, views, testMaxUpload, zap.NewNop())
}

func TestGenerateJournal(t *testing.T) {
	views := newRecordingCache()
	views.values["user-1"] = []byte(`{"kind":"form"}`)
	rephraser := &countingRephraser{content: sampleContent()}
	svc := newJournalService(t, rephraser, views)

	source := docxWithText(t, "Today I built a lens.", "It worked.")
	doc, err := svc.Generate(context.Background(), "user-1", validForm(), uploadOf(source, models.DocxMIMEType))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc.Filename != "Reflective_Journal_Ana_O_Brien.docx" {
		t.Errorf("filename = %q", doc.Filename)
	}
	if _, err := docx.ExtractText(doc.Content); err != nil {
		t.Errorf("generated document unreadable: %v", err)
	}
	if rephraser.calls != 1 {
		t.Errorf("rephraser calls = %d", rephraser.calls)
	}
	if !views.wasInvalidated("user-1") {
		t.Error("workspace view not invalidated")
	}
}

func TestGenerateRejectsBeforeRephrasing(t *testing.T) {
	blank := func(t *testing.T) []byte { return docxWithText(t, "   ", "") }

	cases := []struct {
		name   string
		mutate func(*testing.T) (formOK bool, data []byte, contentType string)
		want   error
	}{
		{"blank document", func(t *testing.T) (bool, []byte, string) {
			return true, blank(t), models.DocxMIMEType
		}, ErrNoExtractableText},
		{"corrupted document", func(*testing.T) (bool, []byte, string) {
			return true, []byte("not a zip"), models.DocxMIMEType
		}, ErrNoExtractableText},
		{"wrong type", func(t *testing.T) (bool, []byte, string) {
			return true, docxWithText(t, "x"), "application/pdf"
		}, ErrUnsupportedDocument},
		{"too large", func(*testing.T) (bool, []byte, string) {
			return true, make([]byte, testMaxUpload+1), models.DocxMIMEType
		}, ErrDocumentTooLarge},
		{"invalid form", func(t *testing.T) (bool, []byte, string) {
			return false, docxWithText(t, "x"), models.DocxMIMEType
		}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rephraser := &countingRephraser{content: sampleContent()}
			svc := newJournalService(t, rephraser, newRecordingCache())

			formOK, data, contentType := tc.mutate(t)
			form := validForm()
			if !formOK {
				form.FullName = ""
			}

			_, err := svc.Generate(context.Background(), "user-1", form, uploadOf(data, contentType))
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if tc.want == nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("err = %v, want *ValidationError", err)
				}
			}
			if rephraser.calls != 0 {
				t.Fatalf("rephraser called %d times", rephraser.calls)
			}
		})
	}
}

func TestGenerateMissingDocument(t *testing.T) {
	svc := newJournalService(t, &countingRephraser{}, newRecordingCache())
	_, err := svc.Generate(context.Background(), "user-1", validForm(), nil)
	if !errors.Is(err, ErrDocumentRequired) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateKeepsViewOnFailure(t *testing.T) {
	views := newRecordingCache()
	rephraser := &countingRephraser{err: ErrNoStructuredContent}
	svc := newJournalService(t, rephraser, views)

	_, err := svc.Generate(context.Background(), "user-1", validForm(),
		uploadOf(docxWithText(t, "text"), models.DocxMIMEType))
	if !errors.Is(err, ErrNoStructuredContent) {
		t.Fatalf("err = %v", err)
	}
	if views.wasInvalidated("user-1") {
		t.Fatal("failed generation must not touch the workspace view")
	}
}
