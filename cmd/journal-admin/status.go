package main

import (
	"errors"
	"fmt"
	"strings"

	"journal-reframer/internal/models"
	"journal-reframer/internal/repository"
	"journal-reframer/internal/service"
	"journal-reframer/pkg/cache"

	"github.com/spf13/cobra"
)

func NewSetStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <email> <active|banned>",
		Short: "Approve, ban or unban an account from the command line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := models.ParseAccountStatus(args[1])
			if !ok || status == models.StatusPending {
				return service.ErrInvalidStatus
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			users := repository.NewUserRepository(e.db, e.logger)
			user, err := users.GetByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(args[0])))
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %s", service.ErrUserNotFound, args[0])
			}
			if err != nil {
				return err
			}

			var views cache.ViewCache = cache.Nop{}
			if e.cfg.Redis.Addr != "" {
				rc, err := cache.NewRedisViewCache(cmd.Context(), e.cfg.Redis.Addr, e.cfg.Redis.Password, e.cfg.Redis.DB, "", e.cfg.Redis.ViewTTL)
				if err != nil {
					return fmt.Errorf("connect view cache: %w", err)
				}
				defer rc.Close()
				views = rc
			}

			accounts := service.NewAccountService(users, views, e.logger)
			if err := accounts.ApplyStatus(cmd.Context(), user.ID, status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User status has been changed to %s.\n", status)
			return nil
		},
	}
}
