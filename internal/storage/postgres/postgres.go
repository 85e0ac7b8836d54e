package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecom_stationery/internal/models"
	"ecom_stationery/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type PostgresRepo struct {
	db DB
}

// New connects, pings and migrates the database.
func New(ctx context.Context, dsn string) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	if err := RunMigrations(ctx, sqlDB); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithDB(pool), nil
}

func NewWithDB(db DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// emailConstraint is the name postgres gives the UNIQUE on users.email.
const emailConstraint = "users_email_key"

const userColumns = `id, full_name, phone_number, email, password_hash, is_verified, created_at`

// SaveUser inserts a user inside its own transaction.
func (r *PostgresRepo) SaveUser(ctx context.Context, u models.User) (int64, error) {
	const op = "storage.postgres.SaveUser"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to begin tx: %w", op, wrap(err))
	}

	query := `
		INSERT INTO users (full_name, phone_number, email, password_hash, is_verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`

	var id int64

	err = tx.QueryRow(ctx, query, u.FullName, u.PhoneNumber, u.Email, u.PasswordHash, u.IsVerified).Scan(&id)
	if err != nil {
		_ = tx.Rollback(ctx)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == emailConstraint {
				return 0, storage.ErrEmailExists
			}

			return 0, storage.ErrUserExists
		}

		return 0, fmt.Errorf("%s: failed to save user: %w", op, wrap(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: failed to commit: %w", op, wrap(err))
	}

	return id, nil
}

// UserByIdentifier finds a user by phone number or email. A phone number
// match wins over an email match.
func (r *PostgresRepo) UserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	const op = "storage.postgres.UserByIdentifier"

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE phone_number = $1 OR email = $1
		ORDER BY phone_number = $1 DESC
		LIMIT 1;
	`

	u, err := scanUser(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, wrap(err))
	}

	return u, nil
}

func (r *PostgresRepo) UserByID(ctx context.Context, id int64) (models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE id = $1;
	`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, wrap(err))
	}

	return u, nil
}

// UpdatePassword replaces the stored hash inside its own transaction.
func (r *PostgresRepo) UpdatePassword(ctx context.Context, userID int64, passHash string) error {
	const op = "storage.postgres.UpdatePassword"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, wrap(err))
	}

	tag, err := tx.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passHash, userID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("%s: %w", op, wrap(err))
	}

	if tag.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return storage.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit: %w", op, wrap(err))
	}

	return nil
}

func (r *PostgresRepo) SaveSession(ctx context.Context, userID int64, token string, expiresAt time.Time) (models.Session, error) {
	const op = "storage.postgres.SaveSession"

	query := `
		INSERT INTO sessions (user_id, session_token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at;
	`

	s := models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}

	if err := r.db.QueryRow(ctx, query, userID, token, expiresAt).Scan(&s.ID, &s.CreatedAt); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, wrap(err))
	}

	return s, nil
}

// Session returns the stored row for token, expired or not. Callers decide
// liveness.
func (r *PostgresRepo) Session(ctx context.Context, token string) (models.Session, error) {
	const op = "storage.postgres.Session"

	query := `
		SELECT id, user_id, session_token, created_at, expires_at
		FROM sessions
		WHERE session_token = $1;
	`

	var s models.Session

	err := r.db.QueryRow(ctx, query, token).Scan(&s.ID, &s.UserID, &s.Token, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, storage.ErrSessionNotFound
		}

		return models.Session{}, fmt.Errorf("%s: %w", op, wrap(err))
	}

	return s, nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PostgresRepo) Close() {
	r.db.Close()
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User

	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.PhoneNumber,
		&u.Email,
		&u.PasswordHash,
		&u.IsVerified,
		&u.CreatedAt,
	)

	return u, err
}

func wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return errors.Join(storage.ErrUnavailable, err)
	}

	return err
}
