package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgExecutor is the subset of *pgxpool.Pool the store needs
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps blobs in a table; the row version is the token
type PostgresStore struct {
	db pgExecutor
}

// NewPostgresStore creates a store over a pgx pool
func NewPostgresStore(db pgExecutor) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the blob table if needed
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS fund_blobs (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			version    BIGINT NOT NULL DEFAULT 1,
			message    TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create fund_blobs: %w", err)
	}
	return nil
}

// Read implements Store
func (s *PostgresStore) Read(ctx context.Context, key string) ([]byte, string, error) {
	var value []byte
	var version int64

	err := s.db.QueryRow(ctx,
		`SELECT value, version FROM fund_blobs WHERE key = $1`, key,
	).Scan(&value, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("select blob %s: %w", key, err)
	}

	return value, strconv.FormatInt(version, 10), nil
}

// Write implements Store
func (s *PostgresStore) Write(ctx context.Context, key string, value []byte, token, message string) (string, error) {
	if token == "" {
		tag, err := s.db.Exec(ctx, `
			INSERT INTO fund_blobs (key, value, version, message)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (key) DO NOTHING`,
			key, value, message,
		)
		if err != nil {
			return "", fmt.Errorf("insert blob %s: %w", key, err)
		}
		if tag.RowsAffected() == 0 {
			return "", ErrConflict
		}
		return "1", nil
	}

	expected, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return "", fmt.Errorf("token %q: %w", token, ErrConflict)
	}

	var version int64
	err = s.db.QueryRow(ctx, `
		UPDATE fund_blobs
		SET value = $2, version = version + 1, message = $4, updated_at = now()
		WHERE key = $1 AND version = $3
		RETURNING version`,
		key, value, expected, message,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrConflict
	}
	if err != nil {
		return "", fmt.Errorf("update blob %s: %w", key, err)
	}

	return strconv.FormatInt(version, 10), nil
}
