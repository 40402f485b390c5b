package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

const settingJWTSecret = "jwt_secret"

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// A concurrent insert by another process is resolved by re-reading.
func (s *Store) GetJWTSecret(ctx context.Context) (string, error) {
	secret, err := s.GetSetting(ctx, settingJWTSecret)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	_, err = s.exec(ctx, s.db, s.sb.Insert("settings").
		Columns("key", "value").
		Values(settingJWTSecret, hex.EncodeToString(buf)))
	if err != nil && !isUniqueViolation(err) {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	return s.GetSetting(ctx, settingJWTSecret)
}

// GetSetting returns a stored setting value.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM settings WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, nil
}
