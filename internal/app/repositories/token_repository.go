package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emre/famlink/internal/pkg/apperrors"
	"github.com/emre/famlink/internal/pkg/logger"
)

// ITokenRepository defines opaque API token storage operations.
type ITokenRepository interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetActiveTokenForUser(ctx context.Context, userID int64) (string, error)
	GetUserIDByToken(ctx context.Context, token string) (int64, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// TokenRepository handles opaque API token database operations
type TokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateToken stores a newly issued token for a user
func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_tokens (token, user_id, expiry_date) VALUES ($1, $2, $3)`,
		token, userID, expiryDate)
	if err != nil {
		return fmt.Errorf("error storing auth token: %w", err)
	}
	return nil
}

// GetActiveTokenForUser returns the user's most recent usable token, so a
// repeat login hands back the same credential instead of minting a new one.
// Returns ErrTokenNotFound when the user has no live token.
func (r *TokenRepository) GetActiveTokenForUser(ctx context.Context, userID int64) (string, error) {
	var token string
	err := r.db.QueryRow(ctx, `
		SELECT token FROM auth_tokens
		WHERE user_id = $1 AND is_revoked = FALSE AND expiry_date > NOW()
		ORDER BY created_at DESC
		LIMIT 1`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrTokenNotFound
		}
		return "", fmt.Errorf("error looking up active token: %w", err)
	}
	return token, nil
}

// GetUserIDByToken resolves a presented token to its owning user ID,
// rejecting revoked and expired tokens.
func (r *TokenRepository) GetUserIDByToken(ctx context.Context, token string) (int64, error) {
	var (
		userID     int64
		expiryDate time.Time
		isRevoked  bool
	)
	err := r.db.QueryRow(ctx,
		`SELECT user_id, expiry_date, is_revoked FROM auth_tokens WHERE token = $1`, token).
		Scan(&userID, &expiryDate, &isRevoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrTokenNotFound
		}
		return 0, fmt.Errorf("error looking up token: %w", err)
	}

	if isRevoked {
		return 0, apperrors.ErrTokenRevoked
	}
	if time.Now().After(expiryDate) {
		return 0, apperrors.ErrTokenExpired
	}

	return userID, nil
}

// RevokeToken marks a single token as revoked. Revoking a token that is
// already gone is not an error.
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `UPDATE auth_tokens SET is_revoked = TRUE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens revokes every token the user holds
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE auth_tokens SET is_revoked = TRUE WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error revoking user tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes tokens past their expiry date and returns how
// many were deleted.
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM auth_tokens WHERE expiry_date <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("error cleaning up expired tokens: %w", err)
	}

	deleted := cmdTag.RowsAffected()
	if deleted > 0 {
		logger.Debug().Int64("count", deleted).Msg("Expired auth tokens removed")
	}
	return deleted, nil
}
