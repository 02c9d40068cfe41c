package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

// UserStore is the capability every user tier provides: the relational
// adapter and the in-process fallback both implement it.
type UserStore interface {
	FindUser(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	// UpdateUser changes full name and, when set, password hash. An empty
	// PasswordHash keeps the stored one.
	UpdateUser(ctx context.Context, user *models.User) error
}

type GradeStore interface {
	ListGrades(ctx context.Context, username string) ([]models.Grade, error)
}

type RelationalStore interface {
	UserStore
	GradeStore

	Ping(ctx context.Context) error
	ApplyMigrations(dir string) error
	SeedGrades(ctx context.Context, username string, grades []models.Grade) error
	Close() error
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB                *sqlx.DB
	Converter         func(string) string
	IsUniqueViolation func(error) bool
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *BaseStore) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed.
// Every migration is expected to be idempotent.
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Info.Printf("Applying migration: %s", file.Name())
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) FindUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := s.Converter(`
		SELECT id, username, email, password_hash, full_name
		FROM users
		WHERE username = ?
	`)

	err := s.DB.GetContext(ctx, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find user", err)
	}
	return &user, nil
}

func (s *BaseStore) CreateUser(ctx context.Context, user *models.User) error {
	query := s.Converter(`
		INSERT INTO users (username, email, password_hash, full_name)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	err := s.DB.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
	).Scan(&user.ID)
	if err != nil {
		if s.IsUniqueViolation != nil && s.IsUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return unavailable("create user", err)
	}
	return nil
}

// UpdateUser writes the full name of user, and its password hash only when
// PasswordHash is set.
func (s *BaseStore) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET full_name = ?
		WHERE username = ?
	`
	args := []interface{}{user.FullName, user.Username}
	if user.PasswordHash != "" {
		query = `
		UPDATE users
		SET full_name = ?, password_hash = ?
		WHERE username = ?
	`
		args = []interface{}{user.FullName, user.PasswordHash, user.Username}
	}

	res, err := s.DB.ExecContext(ctx, s.Converter(query), args...)
	if err != nil {
		return unavailable("update user", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update user", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BaseStore) ListGrades(ctx context.Context, username string) ([]models.Grade, error) {
	grades := []models.Grade{}
	query := s.Converter(`
		SELECT username, subject, marks
		FROM grades
		WHERE username = ?
		ORDER BY subject ASC
	`)

	if err := s.DB.SelectContext(ctx, &grades, query, username); err != nil {
		return nil, unavailable("list grades", err)
	}
	return grades, nil
}

// SeedGrades replaces every grade of username with the given ones.
func (s *BaseStore) SeedGrades(ctx context.Context, username string, grades []models.Grade) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("seed grades", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.Converter(`DELETE FROM grades WHERE username = ?`), username); err != nil {
		return fmt.Errorf("failed to clear grades for %s: %w", username, err)
	}

	insert := s.Converter(`INSERT INTO grades (username, subject, marks) VALUES (?, ?, ?)`)
	for _, g := range grades {
		g.Username = username
		if err := g.Validate(); err != nil {
			return fmt.Errorf("invalid grade %q for %s: %w", g.Subject, username, err)
		}
		if _, err := tx.ExecContext(ctx, insert, username, g.Subject, g.Marks); err != nil {
			return fmt.Errorf("failed to insert grade %q for %s: %w", g.Subject, username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("seed grades", err)
	}
	return nil
}
