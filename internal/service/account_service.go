package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"journal-reframer/internal/models"
	"journal-reframer/internal/repository"
	"journal-reframer/pkg/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserStore is the profile persistence the services need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

const statusWriteTimeout = 10 * time.Second

// AccountService is the admin side of the account gate.
type AccountService struct {
	users  UserStore
	views  cache.ViewCache
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewAccountService(users UserStore, views cache.ViewCache, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:  users,
		views:  views,
		logger: logger,
	}
}

// ListUsers returns every profile, newest first.
func (s *AccountService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SetStatusAsync checks the request shape, then writes the new status in the
// background and returns immediately. The write outlives the request context;
// failures are only logged.
func (s *AccountService) SetStatusAsync(ctx context.Context, userID, status string) (models.AccountStatus, error) {
	target, ok := models.ParseAccountStatus(status)
	if !ok || target == models.StatusPending {
		return "", ErrInvalidStatus
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", ErrUserNotFound
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		writeCtx, cancel := context.WithTimeout(bg, statusWriteTimeout)
		defer cancel()
		if err := s.ApplyStatus(writeCtx, id, target); err != nil {
			s.logger.Error("Status change failed",
				zap.String("user_id", userID),
				zap.String("status", string(target)),
				zap.Error(err),
			)
		}
	}()
	return target, nil
}

// ApplyStatus moves a profile to status if the transition is allowed.
// Re-applying the current status writes nothing.
func (s *AccountService) ApplyStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if user.Status == status {
		return nil
	}
	if !models.CanTransition(user.Status, status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, user.Status, status)
	}

	if err := s.users.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update status: %w", err)
	}
	if err := s.views.Invalidate(ctx, id.String()); err != nil {
		s.logger.Warn("Failed to invalidate workspace view", zap.String("user_id", id.String()), zap.Error(err))
	}

	s.logger.Info("User status changed",
		zap.String("user_id", id.String()),
		zap.String("from", string(user.Status)),
		zap.String("to", string(status)),
	)
	return nil
}

// Wait blocks until in-flight status writes finish or ctx ends.
func (s *AccountService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
