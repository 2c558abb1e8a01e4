package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"journal-reframer/internal/models"
	"journal-reframer/internal/repository"
	"journal-reframer/internal/service"
	"journal-reframer/pkg/auth"
	"journal-reframer/pkg/cache"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewSeedAdminCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or reset the administrator account",
		Long: "Creates the account named by ADMIN_EMAIL (or --email) with status active. " +
			"An existing account gets the new password and is activated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if email == "" {
				email = e.cfg.Admin.Email
			}
			if password == "" {
				password = e.cfg.Admin.Password
			}
			users := repository.NewUserRepository(e.db, e.logger)
			accounts := service.NewAccountService(users, cache.Nop{}, e.logger)
			return seedAdmin(cmd.Context(), users, accounts, email, password, e.logger)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "admin email (defaults to ADMIN_EMAIL)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password (defaults to ADMIN_PASSWORD)")
	return cmd
}

type statusApplier interface {
	ApplyStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error
}

func seedAdmin(ctx context.Context, users service.UserStore, accounts statusApplier, email, password string, log *zap.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("admin email is required")
	}
	if len(password) < 6 {
		return errors.New("admin password must be at least 6 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		now := time.Now()
		admin := &models.User{
			ID:        uuid.New(),
			Email:     email,
			Password:  hash,
			Status:    models.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := users.Create(ctx, admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		log.Info("Admin account created", zap.String("email", email))
		return nil
	case err != nil:
		return err
	}

	if err := users.UpdatePassword(ctx, existing.ID, hash); err != nil {
		return fmt.Errorf("reset admin password: %w", err)
	}
	if existing.Status != models.StatusActive {
		if err := accounts.ApplyStatus(ctx, existing.ID, models.StatusActive); err != nil {
			return fmt.Errorf("activate admin: %w", err)
		}
	}
	log.Info("Admin account updated", zap.String("email", email))
	return nil
}
