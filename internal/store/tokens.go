package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// RevokeToken adds a token's JTI to the revocation list. Revoking the same
// token twice is not an error.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.exec(ctx, s.db, s.sb.Insert("revoked_tokens").
		Columns("jti", "expires_at").
		Values(jti, expiresAt.UTC()))
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Opportunistically clean up expired revocations.
	_, _ = s.exec(ctx, s.db, s.sb.Delete("revoked_tokens").Where(sq.Lt{"expires_at": s.now()}))

	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`), jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return count > 0, nil
}
