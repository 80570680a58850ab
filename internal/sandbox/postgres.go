package sandbox

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// EnsureSchema creates the sandbox tables when they do not exist yet. The
// sandbox owns its schema; there is no external migration step.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS sandbox_users (
		id            BIGSERIAL PRIMARY KEY,
		login_name    TEXT NOT NULL UNIQUE,
		password_hash BYTEA NOT NULL,
		email         TEXT NOT NULL,
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		city          TEXT NOT NULL DEFAULT '',
		country       TEXT NOT NULL DEFAULT '',
		login_count   BIGINT NOT NULL DEFAULT 0,
		last_login_at TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sandbox_site_accounts (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES sandbox_users(id),
		site_id    BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, site_id)
	);`
	_, err := db.Exec(ctx, ddl)
	return err
}

// PostgresUserStore implements UserStore on PostgreSQL.
type PostgresUserStore struct {
	db *pgxpool.Pool
}

// NewPostgresUserStore builds a Postgres-backed user store.
func NewPostgresUserStore(db *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, u User) (User, error) {
	const query = `INSERT INTO sandbox_users
		(login_name, password_hash, email, first_name, last_name, city, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := s.db.QueryRow(ctx, query,
		u.LoginName, u.PasswordHash, u.Email, u.FirstName, u.LastName, u.City, u.Country, u.CreatedAt.UTC(),
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrUserExists
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresUserStore) FindByLogin(ctx context.Context, login string) (User, error) {
	const query = `SELECT id, login_name, password_hash, email, first_name, last_name, city, country, login_count, last_login_at, created_at
		FROM sandbox_users WHERE login_name = $1`
	return scanUser(s.db.QueryRow(ctx, query, login))
}

func (s *PostgresUserStore) RecordLogin(ctx context.Context, login string, at time.Time) (User, error) {
	const query = `UPDATE sandbox_users
		SET login_count = login_count + 1, last_login_at = $2
		WHERE login_name = $1
		RETURNING id, login_name, password_hash, email, first_name, last_name, city, country, login_count, last_login_at, created_at`
	return scanUser(s.db.QueryRow(ctx, query, login, at.UTC()))
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u         User
		lastLogin *time.Time
		createdAt time.Time
	)
	err := row.Scan(&u.ID, &u.LoginName, &u.PasswordHash, &u.Email, &u.FirstName, &u.LastName, &u.City, &u.Country, &u.LoginCount, &lastLogin, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	if lastLogin != nil {
		u.LastLoginAt = lastLogin.UTC()
	}
	u.CreatedAt = createdAt.UTC()
	return u, nil
}

// PostgresSiteAccountStore implements SiteAccountStore on PostgreSQL.
type PostgresSiteAccountStore struct {
	db *pgxpool.Pool
}

// NewPostgresSiteAccountStore builds a Postgres-backed site-account store.
func NewPostgresSiteAccountStore(db *pgxpool.Pool) *PostgresSiteAccountStore {
	return &PostgresSiteAccountStore{db: db}
}

func (s *PostgresSiteAccountStore) Create(ctx context.Context, a SiteAccount) (SiteAccount, error) {
	const query = `INSERT INTO sandbox_site_accounts (user_id, site_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := s.db.QueryRow(ctx, query, a.UserID, a.SiteID, a.CreatedAt.UTC()).Scan(&a.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return SiteAccount{}, ErrSiteAccountExists
		}
		return SiteAccount{}, err
	}
	return a, nil
}
