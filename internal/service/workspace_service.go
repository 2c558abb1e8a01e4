package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"journal-reframer/internal/models"
	"journal-reframer/internal/repository"
	"journal-reframer/pkg/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ViewKind string

const (
	ViewAdmin     ViewKind = "admin"
	ViewForm      ViewKind = "form"
	ViewDownload  ViewKind = "download"
	ViewPending   ViewKind = "pending"
	ViewBanned    ViewKind = "banned"
	ViewUnknown   ViewKind = "unknown"
	ViewVerifying ViewKind = "verifying"
)

// WorkspaceView is what the workspace renders for one user.
type WorkspaceView struct {
	Kind     ViewKind             `json:"kind"`
	Title    string               `json:"title,omitempty"`
	Message  string               `json:"message,omitempty"`
	Status   models.AccountStatus `json:"status,omitempty"`
	Email    string               `json:"email,omitempty"`
	Filename string               `json:"filename,omitempty"`
}

// CanGenerate reports whether the view lets the user submit journals.
func (v *WorkspaceView) CanGenerate() bool {
	return v.Kind == ViewForm || v.Kind == ViewDownload
}

// statusView maps a profile status to its view. Every status, including
// values outside the known set, resolves to exactly one view.
func statusView(status models.AccountStatus) WorkspaceView {
	switch status {
	case models.StatusActive:
		return WorkspaceView{Kind: ViewForm, Status: status}
	case models.StatusPending:
		return WorkspaceView{
			Kind:    ViewPending,
			Status:  status,
			Title:   "Account Pending Approval",
			Message: "Your account is currently awaiting administrator approval. Please check back later.",
		}
	case models.StatusBanned:
		return WorkspaceView{
			Kind:    ViewBanned,
			Status:  status,
			Title:   "Access Restricted",
			Message: "Your account has been suspended. Please contact support for more information.",
		}
	default:
		return WorkspaceView{Kind: ViewUnknown, Status: status, Message: "Unknown account status."}
	}
}

var verifyingView = WorkspaceView{Kind: ViewVerifying, Message: "Verifying account..."}

// WorkspaceService resolves views and gates generation on account status.
type WorkspaceService struct {
	users      UserStore
	views      cache.ViewCache
	adminEmail string
	logger     *zap.Logger
}

func NewWorkspaceService(users UserStore, views cache.ViewCache, adminEmail string, logger *zap.Logger) *WorkspaceService {
	return &WorkspaceService{
		users:      users,
		views:      views,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		logger:     logger,
	}
}

func (s *WorkspaceService) IsAdmin(email string) bool {
	return s.adminEmail != "" && strings.ToLower(strings.TrimSpace(email)) == s.adminEmail
}

// ResolveView returns the caller's view. lastFilename is the result the
// client still holds from its previous generation, if any; an active user
// with one sees the download view.
func (s *WorkspaceService) ResolveView(ctx context.Context, userID, email, lastFilename string) (*WorkspaceView, error) {
	if s.IsAdmin(email) {
		return &WorkspaceView{Kind: ViewAdmin, Email: email}, nil
	}

	view, err := s.baseView(ctx, userID)
	if err != nil {
		return nil, err
	}
	if view.Kind == ViewForm && lastFilename != "" {
		view.Kind = ViewDownload
		view.Filename = lastFilename
	}
	return view, nil
}

// baseView is the status-derived view, served from the cache when present.
func (s *WorkspaceService) baseView(ctx context.Context, userID string) (*WorkspaceView, error) {
	if raw, ok, err := s.views.Get(ctx, userID); err != nil {
		s.logger.Warn("Workspace view cache read failed", zap.String("user_id", userID), zap.Error(err))
	} else if ok {
		var v WorkspaceView
		if err := json.Unmarshal(raw, &v); err == nil {
			return &v, nil
		}
	}

	v, found, err := s.storedView(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := s.views.Set(ctx, userID, raw); err != nil {
		s.logger.Warn("Workspace view cache write failed", zap.String("user_id", userID), zap.Error(err))
		return v, nil
	}
	return s.recheckView(ctx, userID, v)
}

// recheckView reads the row again after a cache fill. A status change that
// landed between the first read and the fill has already run its
// invalidation, so the entry just written is dropped and the fresh view wins.
func (s *WorkspaceService) recheckView(ctx context.Context, userID string, cached *WorkspaceView) (*WorkspaceView, error) {
	fresh, found, err := s.storedView(ctx, userID)
	if err != nil {
		s.logger.Warn("Workspace view recheck failed", zap.String("user_id", userID), zap.Error(err))
		return cached, nil
	}
	if found && fresh.Status == cached.Status {
		return cached, nil
	}
	if err := s.views.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Workspace view cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
	return fresh, nil
}

// storedView derives the view from the profile row. found is false when no
// profile exists yet.
func (s *WorkspaceService) storedView(ctx context.Context, userID string) (*WorkspaceView, bool, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		v := verifyingView
		return &v, false, nil
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		v := verifyingView
		return &v, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	v := statusView(user.Status)
	v.Email = user.Email
	return &v, true, nil
}

// Allow implements the generation gate: only active profiles pass. It reads
// the profile row directly; a cached view may predate a ban.
func (s *WorkspaceService) Allow(ctx context.Context, userID string) (bool, string, error) {
	view, _, err := s.storedView(ctx, userID)
	if err != nil {
		return false, "", err
	}
	if view.CanGenerate() {
		return true, "", nil
	}
	return false, view.Message, nil
}
