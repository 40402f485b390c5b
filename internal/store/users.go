package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/erazemk/zascita/internal/model"
)

const userColumns = "id, username, password_hash, role, created_at, deleted_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new user.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash, role string) (*model.User, error) {
	if username == "" {
		return nil, invalidf("username is required")
	}
	if !model.ValidRole(role) {
		return nil, invalidf("unknown role %q", role)
	}

	id := newID("")
	_, err := s.exec(ctx, s.db, s.sb.Insert("users").
		Columns("id", "username", "password_hash", "role", "created_at").
		Values(id, username, passwordHash, role, s.now()))
	if isUniqueViolation(err) {
		return nil, conflictf("username %q is taken", username)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return s.GetUser(ctx, id)
}

// GetUser returns an active user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, s.db, id)
}

func (s *Store) getUser(ctx context.Context, r runner, id string) (*model.User, error) {
	u, err := scanUser(r.QueryRowContext(ctx,
		s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns an active user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`), username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all active users, optionally filtered by role.
func (s *Store) ListUsers(ctx context.Context, role string) ([]model.User, error) {
	q := s.sb.Select(userColumns).From("users").Where("deleted_at IS NULL").OrderBy("username")
	if role != "" {
		q = q.Where(sq.Eq{"role": role})
	}

	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of active users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdateUserRole changes a user's role.
func (s *Store) UpdateUserRole(ctx context.Context, id, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, invalidf("unknown role %q", role)
	}

	res, err := s.exec(ctx, s.db, s.sb.Update("users").
		Set("role", role).
		Where(sq.Eq{"id": id}).Where("deleted_at IS NULL"))
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if err := affected(res); err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}

	return s.GetUser(ctx, id)
}

// UpdateUserPassword updates a user's password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.exec(ctx, s.db, s.sb.Update("users").
		Set("password_hash", passwordHash).
		Where(sq.Eq{"id": id}).Where("deleted_at IS NULL"))
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("user %s: %w", id, err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, s.sb.Update("users").
		Set("deleted_at", s.now()).
		Where(sq.Eq{"id": id}).Where("deleted_at IS NULL"))
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("user %s: %w", id, err)
	}
	return nil
}
