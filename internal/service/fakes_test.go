package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"journal-reframer/internal/docx"
	"journal-reframer/internal/models"
	"journal-reframer/internal/repository"
	"journal-reframer/pkg/llm"
	"journal-reframer/pkg/mailer"

	"github.com/google/uuid"
)

type memStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*models.User
	statusWrites int
}

func newMemStore(users ...*models.User) *memStore {
	s := &memStore{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	s.statusWrites++
	return nil
}

func (s *memStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (s *memStore) status(id uuid.UUID) models.AccountStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Status
}

func newUser(email string, status models.AccountStatus) *models.User {
	return &models.User{ID: uuid.New(), Email: email, Status: status}
}

// recordingCache is an in-memory ViewCache that remembers invalidations.
type recordingCache struct {
	mu          sync.Mutex
	values      map[string][]byte
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{values: make(map[string][]byte)}
}

func (c *recordingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *recordingCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
		c.invalidated = append(c.invalidated, k)
	}
	return nil
}

func (c *recordingCache) wasInvalidated(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.invalidated {
		if k == key {
			return true
		}
	}
	return false
}

// stubGenerator answers GenerateJSON with a fixed reply.
type stubGenerator struct {
	reply json.RawMessage
	err   error
	calls int
	last  llm.Request
}

func (g *stubGenerator) GenerateJSON(_ context.Context, req llm.Request) (json.RawMessage, error) {
	g.calls++
	g.last = req
	return g.reply, g.err
}

func (g *stubGenerator) Close() error { return nil }

type countingRephraser struct {
	content *models.RephrasedContent
	err     error
	calls   int
}

func (r *countingRephraser) Rephrase(context.Context, string, float64, bool) (*models.RephrasedContent, error) {
	r.calls++
	return r.content, r.err
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func sampleContent() *models.RephrasedContent {
	return &models.RephrasedContent{
		Topic:       "Optics lab",
		Experience:  "We measured focal lengths.",
		Feelings:    "Curious and focused.",
		Learning:    "Lenses bend light.\n* Convex lenses converge\n* Concave lenses diverge\nPrecision matters.",
		Application: []string{"Healthcare: eyeglasses", "Finance: none", "Media: cameras", "Astronomy: telescopes"},
		Conclusion:  "Optics explains everyday devices.",
	}
}

func writeHeaderPNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 1))); err != nil {
		t.Fatalf("encode header: %v", err)
	}
	path := filepath.Join(t.TempDir(), "header.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write header: %v", err)
	}
	return path
}

func docxWithText(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	d := &docx.Document{}
	for _, p := range paragraphs {
		d.Add(docx.Text(p, docx.Run{}))
	}
	data, err := d.Bytes()
	if err != nil {
		t.Fatalf("build docx: %v", err)
	}
	return data
}

func uploadOf(data []byte, contentType string) *Upload {
	return &Upload{
		Name:        "journal.docx",
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
