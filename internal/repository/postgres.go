package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/leadflow/leadflow-api/internal/domain"
	"github.com/leadflow/leadflow-api/internal/repository/migrations"
)

const uniqueViolation = "23505"

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

// RunMigrations applies the embedded schema to the database behind pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

const userColumns = `id::text, email, full_name, COALESCE(hashed_password, ''), is_active,
COALESCE(google_id, ''), origin, created_at, updated_at`

const selectUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

const selectUserByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

const insertUserSQL = `INSERT INTO users (email, full_name, hashed_password, is_active, google_id, origin, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7, $8)
RETURNING ` + userColumns

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUserByEmailSQL, email))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID string) (domain.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	user, err := scanUser(r.db.QueryRow(ctx, selectUserByIDSQL, id.String()))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	if user.Origin == "" {
		user.Origin = domain.OriginLocal
	}

	inserted, err := scanUser(r.db.QueryRow(ctx, insertUserSQL,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.IsActive,
		user.GoogleID,
		string(user.Origin),
		user.CreatedAt,
		user.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return inserted, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user   domain.User
		origin string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.IsActive,
		&user.GoogleID,
		&origin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	user.Origin = domain.UserOrigin(origin)
	return user, nil
}
