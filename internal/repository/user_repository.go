package repository

import (
	"context"
	"errors"
	"time"

	"journal-reframer/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const uniqueViolation = "23505"

var userColumns = []string{"id", "email", "password", "status", "created_at", "updated_at"}

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func insertUserQuery(user *models.User) squirrel.InsertBuilder {
	return squirrel.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Email, user.Password, string(user.Status), user.CreatedAt, user.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)
}

func selectUsersQuery() squirrel.SelectBuilder {
	return squirrel.Select(userColumns...).
		From("users").
		PlaceholderFormat(squirrel.Dollar)
}

func updateStatusQuery(id uuid.UUID, status models.AccountStatus, at time.Time) squirrel.UpdateBuilder {
	return squirrel.Update("users").
		Set("status", string(status)).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
}

func updatePasswordQuery(id uuid.UUID, hash string, at time.Time) squirrel.UpdateBuilder {
	return squirrel.Update("users").
		Set("password", hash).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := insertUserQuery(user).ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	sql, args, err := selectUsersQuery().Where(squirrel.Eq{"email": email}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.db.QueryRow(ctx, sql, args...))
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	sql, args, err := selectUsersQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.db.QueryRow(ctx, sql, args...))
}

// List returns every profile, newest first.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	sql, args, err := selectUsersQuery().OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error {
	sql, args, err := updateStatusQuery(id, status, time.Now()).ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, sql, args)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	sql, args, err := updatePasswordQuery(id, hash, time.Now()).ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, sql, args)
}

func (r *UserRepository) execOne(ctx context.Context, sql string, args []interface{}) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user   models.User
		status string
	)
	err := row.Scan(&user.ID, &user.Email, &user.Password, &status, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Status = models.AccountStatus(status)
	return &user, nil
}
