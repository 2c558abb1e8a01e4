package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"journal-reframer/internal/dto"
	"journal-reframer/internal/models"
	"journal-reframer/internal/repository"
	"journal-reframer/pkg/auth"
	"journal-reframer/pkg/mailer"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	users      UserStore
	jwtManager *auth.JWTManager
	mail       mailer.Mailer
	validate   *validator.Validate
	resetURL   string
	adminEmail string
	logger     *zap.Logger
}

// NewAuthService builds the auth flows. adminEmail is reserved: the admin
// account is seeded out of band and can never be claimed through Register.
func NewAuthService(
	users UserStore,
	jwtManager *auth.JWTManager,
	mail mailer.Mailer,
	validate *validator.Validate,
	resetURL string,
	adminEmail string,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		jwtManager: jwtManager,
		mail:       mail,
		validate:   validate,
		resetURL:   resetURL,
		adminEmail: normalizeEmail(adminEmail),
		logger:     logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a pending profile; an admin must approve it before the
// user can generate journals.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if s.adminEmail != "" && req.Email == s.adminEmail {
		s.logger.Warn("Registration attempted with the admin email")
		return nil, ErrReservedEmail
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, ErrUserExists
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Password:  hashedPassword,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.issueTokens(user)
}

// ForgotPassword mails a short-lived reset link when the address belongs to
// a profile. Unknown addresses are not reported to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Info("Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.jwtManager.GenerateResetToken(user.ID.String(), user.Email)
	if err != nil {
		return err
	}

	link, err := resetLink(s.resetURL, token)
	if err != nil {
		return err
	}
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Reset your Journal Reframer password",
		Text:    "We received a request to reset your password. Open the link below to choose a new one:\n\n" + link + "\n\nIf you did not ask for this, you can ignore this email.",
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}

	claims, err := s.jwtManager.ValidateToken(req.Token, auth.KindReset)
	if err != nil {
		return ErrInvalidCredentials
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info("Password reset", zap.String("user_id", userID.String()))
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
		User:         UserResponse(user),
	}, nil
}

// UserResponse converts a profile for the API, without the password hash.
func UserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
