package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"journal-reframer/internal/dto"
	"journal-reframer/internal/models"
	"journal-reframer/internal/service"
	"journal-reframer/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubJournals struct {
	doc        *models.GeneratedDocument
	err        error
	form       dto.JournalForm
	upload     *service.Upload
	uploadBody []byte
	userID     string
}

func (s *stubJournals) Generate(_ context.Context, userID string, form dto.JournalForm, upload *service.Upload) (*models.GeneratedDocument, error) {
	s.userID = userID
	s.form = form
	s.upload = upload
	if upload != nil {
		rc, err := upload.Open()
		if err != nil {
			return nil, err
		}
		s.uploadBody, _ = io.ReadAll(rc)
		rc.Close()
	}
	return s.doc, s.err
}

type stubViews struct {
	view *service.WorkspaceView
	last string
}

func (s *stubViews) ResolveView(_ context.Context, _, _, lastFilename string) (*service.WorkspaceView, error) {
	s.last = lastFilename
	return s.view, nil
}

type stubAccounts struct {
	users []*models.User
	err   error
	id    string
}

func (s *stubAccounts) ListUsers(context.Context) ([]*models.User, error) {
	return s.users, nil
}

func (s *stubAccounts) SetStatusAsync(_ context.Context, userID, status string) (models.AccountStatus, error) {
	s.id = userID
	if s.err != nil {
		return "", s.err
	}
	return models.AccountStatus(status), nil
}

var testUserID = uuid.MustParse("8b0e9a3c-3f7a-4a44-9d35-0b7f1d2c9e11")

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, testUserID.String())
		c.Locals(middleware.LocalEmail, "ana@example.com")
		return c.Next()
	})
	return app
}

func multipartRequest(t *testing.T, url string, fields map[string]string, file []byte, contentType string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="document"; filename="draft.docx"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(file)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

var journalFields = map[string]string{
	"fullName":        "Ana O'Brien",
	"rollNumber":      "R-42",
	"classAndSection": "CS-B",
	"studyLevel":      "UG",
	"yearAndTerm":     "2025 Fall",
	"subjectName":     "Physics",
	"assessmentName":  "Lab Journal 3",
	"submissionDate":  "2025-10-01",
	"creativity":      "0.7",
	"humanize":        "true",
}

func TestGenerateJournalJSON(t *testing.T) {
	journals := &stubJournals{doc: &models.GeneratedDocument{Filename: "Reflective_Journal_Ana_O_Brien.docx", Content: []byte("PK-docx")}}
	app := newTestApp()
	app.Post("/generate", NewJournalHandler(journals, zap.NewNop()).GenerateJournal)

	resp, err := app.Test(multipartRequest(t, "/generate", journalFields, []byte("source"), models.DocxMIMEType), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode[dto.GeneratedJournalResponse](t, resp)
	if out.Filename != "Reflective_Journal_Ana_O_Brien.docx" {
		t.Errorf("filename = %q", out.Filename)
	}
	if raw, _ := base64.StdEncoding.DecodeString(out.Content); string(raw) != "PK-docx" {
		t.Errorf("content = %q", out.Content)
	}

	if journals.userID != testUserID.String() || journals.form.FullName != "Ana O'Brien" || journals.form.Creativity != "0.7" {
		t.Errorf("form = %+v, user = %s", journals.form, journals.userID)
	}
	if journals.upload == nil || journals.upload.ContentType != models.DocxMIMEType || journals.upload.Size != 6 {
		t.Fatalf("upload = %+v", journals.upload)
	}
	if string(journals.uploadBody) != "source" {
		t.Errorf("upload body = %q", journals.uploadBody)
	}
}

func TestGenerateJournalDownload(t *testing.T) {
	journals := &stubJournals{doc: &models.GeneratedDocument{Filename: "Reflective_Journal_Ana.docx", Content: []byte("PK-docx")}}
	app := newTestApp()
	app.Post("/generate", NewJournalHandler(journals, zap.NewNop()).GenerateJournal)

	resp, err := app.Test(multipartRequest(t, "/generate?download=1", journalFields, []byte("source"), models.DocxMIMEType), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != models.DocxMIMEType {
		t.Errorf("content type = %q", got)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="Reflective_Journal_Ana.docx"` {
		t.Errorf("disposition = %q", got)
	}
	if body, _ := io.ReadAll(resp.Body); string(body) != "PK-docx" {
		t.Errorf("body = %q", body)
	}
}

func TestGenerateJournalErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"wrong type", service.ErrUnsupportedDocument, fiber.StatusUnsupportedMediaType, "Only .docx files are accepted."},
		{"no output", service.ErrNoStructuredContent, fiber.StatusBadGateway, "The AI model did not return any output."},
		{"unexpected", errors.New("disk full"), fiber.StatusInternalServerError,
			"Error: disk full. Please check the server logs for more details."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp()
			app.Post("/generate", NewJournalHandler(&stubJournals{err: tc.err}, zap.NewNop()).GenerateJournal)

			resp, err := app.Test(multipartRequest(t, "/generate", journalFields, []byte("x"), "application/pdf"), -1)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
			if out := decode[dto.ErrorResponse](t, resp); out.Error != tc.msg {
				t.Errorf("error = %q", out.Error)
			}
		})
	}
}

func TestGenerateJournalWithoutDocument(t *testing.T) {
	journals := &stubJournals{err: service.ErrDocumentRequired}
	app := newTestApp()
	app.Post("/generate", NewJournalHandler(journals, zap.NewNop()).GenerateJournal)

	resp, err := app.Test(multipartRequest(t, "/generate", journalFields, nil, ""), -1)
	if err != nil {
		t.Fatal(err)
	}
	if journals.upload != nil {
		t.Error("missing file should reach the service as a nil upload")
	}
	if out := decode[dto.ErrorResponse](t, resp); out.Error != "Document is required." {
		t.Errorf("error = %q", out.Error)
	}
}

func TestGetWorkspace(t *testing.T) {
	views := &stubViews{view: &service.WorkspaceView{
		Kind:     service.ViewDownload,
		Status:   models.StatusActive,
		Email:    "ana@example.com",
		Filename: "Reflective_Journal_Ana.docx",
	}}
	app := newTestApp()
	app.Get("/workspace", NewWorkspaceHandler(views, zap.NewNop()).GetWorkspace)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workspace?filename=Reflective_Journal_Ana.docx", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	out := decode[dto.WorkspaceResponse](t, resp)
	if views.last != "Reflective_Journal_Ana.docx" {
		t.Errorf("lastFilename = %q", views.last)
	}
	if out.View != "download" || !out.CanWrite || out.Result == nil || out.Result.Filename != "Reflective_Journal_Ana.docx" {
		t.Errorf("workspace = %+v", out)
	}
}

func TestUpdateUserStatus(t *testing.T) {
	accounts := &stubAccounts{}
	app := newTestApp()
	app.Patch("/users/:id/status", NewAdminHandler(accounts, zap.NewNop()).UpdateUserStatus)

	req := httptest.NewRequest(http.MethodPatch, "/users/"+testUserID.String()+"/status", strings.NewReader(`{"status":"banned"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out := decode[dto.MessageResponse](t, resp); out.Message != "User status has been changed to banned." {
		t.Errorf("message = %q", out.Message)
	}
	if accounts.id != testUserID.String() {
		t.Errorf("id = %q", accounts.id)
	}
}

func TestUpdateUserStatusRejected(t *testing.T) {
	app := newTestApp()
	app.Patch("/users/:id/status", NewAdminHandler(&stubAccounts{err: service.ErrInvalidStatus}, zap.NewNop()).UpdateUserStatus)

	req := httptest.NewRequest(http.MethodPatch, "/users/x/status", strings.NewReader(`{"status":"pending"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out := decode[dto.ErrorResponse](t, resp); out.Error != "Status must be active or banned." {
		t.Errorf("error = %q", out.Error)
	}
}

func TestUpdateUserStatusRejectsMissingStatus(t *testing.T) {
	app := newTestApp()
	svc := service.NewAccountService(nil, nil, zap.NewNop())
	app.Patch("/users/:id/status", NewAdminHandler(svc, zap.NewNop()).UpdateUserStatus)

	req := httptest.NewRequest(http.MethodPatch, "/users/"+testUserID.String()+"/status", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out := decode[dto.ErrorResponse](t, resp); out.Error != "Status must be active or banned." {
		t.Errorf("error = %q", out.Error)
	}
}

func TestListUsersHidesPasswords(t *testing.T) {
	accounts := &stubAccounts{users: []*models.User{
		{ID: testUserID, Email: "ana@example.com", Password: "$2a$hash", Status: models.StatusPending},
	}}
	app := newTestApp()
	app.Get("/users", NewAdminHandler(accounts, zap.NewNop()).ListUsers)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if bytes.Contains(raw, []byte("$2a$hash")) {
		t.Fatal("password hash leaked")
	}
	var out dto.UserListResponse
	if err := json.Unmarshal(raw, &out); err != nil || len(out.Users) != 1 || out.Users[0].Status != "pending" {
		t.Fatalf("users = %s, %v", raw, err)
	}
}
