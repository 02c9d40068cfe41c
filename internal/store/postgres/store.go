package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shrimpsizemoose/gradebook/internal/store"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	store.BaseStore
}

// NewPostgresStore does not require the server to be reachable: the pool
// connects lazily so the caller can keep serving from the fallback tier.
func NewPostgresStore(config *store.DBConfig) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStore(db), nil
}

func newStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{BaseStore: store.BaseStore{
		DB:                db,
		Converter:         convertPlaceholders,
		IsUniqueViolation: isUniqueViolation,
	}}
}

func convertPlaceholders(query string) string {
	out := query
	for i := 1; strings.Contains(out, "?"); i++ {
		out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

// CreateDatabase creates the named database through an admin connection if it
// does not exist yet. It reports whether the database was created.
func CreateDatabase(ctx context.Context, adminDSN, name string) (bool, error) {
	db, err := sqlx.Connect("postgres", adminDSN)
	if err != nil {
		return false, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer db.Close()

	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name); err != nil {
		return false, fmt.Errorf("failed to look up database %s: %w", name, err)
	}
	if exists {
		return false, nil
	}

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return true, nil
}
