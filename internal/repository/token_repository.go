package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jebol-id/adminduk-api/internal/models"
)

// TokenRepository persists personal access tokens in postgres. Creation and
// deletion are single-row statements, so a logout racing a request either
// finds the row or does not; there are no partial states.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = `id, user_id, name, token_hash, abilities, last_used_at, expires_at, created_at`

// Create inserts a token record.
func (r *TokenRepository) Create(ctx context.Context, token *models.PersonalToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO personal_access_tokens (id, user_id, name, token_hash, abilities, last_used_at, expires_at, created_at)
		VALUES (:id, :user_id, :name, :token_hash, :abilities, :last_used_at, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

// FindByID resolves a token record by its identifier.
func (r *TokenRepository) FindByID(ctx context.Context, id string) (*models.PersonalToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM personal_access_tokens WHERE id = $1 LIMIT 1`, tokenColumns)
	var token models.PersonalToken
	if err := r.db.GetContext(ctx, &token, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find token by id: %w", err)
	}
	return &token, nil
}

// Delete revokes a token by removing its record.
func (r *TokenRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM personal_access_tokens WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// DeleteForUser revokes every token belonging to an account, used when an
// account is deleted or deactivated.
func (r *TokenRepository) DeleteForUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM personal_access_tokens WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete user tokens: %w", err)
	}
	return nil
}

// TouchLastUsed stamps last_used_at. Best effort; validation does not depend
// on it.
func (r *TokenRepository) TouchLastUsed(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE personal_access_tokens SET last_used_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("touch token: %w", err)
	}
	return nil
}
