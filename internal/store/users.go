package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/stencil/internal/model"
)

// ErrInvalidPassword is returned by Authenticate on a digest mismatch.
var ErrInvalidPassword = errors.New("invalid password")

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u         model.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordDigest, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = fromNanos(createdAt)
	return &u, nil
}

// CreateUser stores a user with a bcrypt digest of password.
func (s *Store) CreateUser(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &model.ValidationError{Fields: map[string]string{"email": "required field"}}
	}
	if password == "" {
		return nil, &model.ValidationError{Fields: map[string]string{"password": "required field"}}
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_digest, created_at) VALUES (?, ?, ?)
	`, email, string(digest), now)
	if err != nil {
		return nil, fmt.Errorf("insert user %q: %w", email, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user %q: %w", email, err)
	}

	return &model.User{
		ID:             id,
		Email:          email,
		PasswordDigest: string(digest),
		CreatedAt:      fromNanos(now),
	}, nil
}

// FirstUser returns the earliest created user.
// Returns a *model.NotFoundError if there are no users.
func (s *Store) FirstUser(ctx context.Context) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_digest, created_at FROM users ORDER BY id ASC LIMIT 1")
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFound("user", "")
	}
	if err != nil {
		return nil, fmt.Errorf("query first user: %w", err)
	}
	return u, nil
}

// Authenticate looks up a user by email and checks password against the
// stored digest.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_digest, created_at FROM users WHERE email = ?",
		strings.TrimSpace(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %q: %w", email, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordDigest), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}
	return u, nil
}
