// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maison-auth-api/logger"
	"maison-auth-api/model"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database operations.
// Mutating operations take the caller's transaction so that a rotation can revoke
// the consumed record and insert its successor atomically. Every transaction that
// changes a family holds the row lock of the family's root record first.
type ITokenRepository interface {
	Create(ctx context.Context, tx *sql.Tx, token *model.RefreshToken) error
	GetByTokenHash(ctx context.Context, tx *sql.Tx, tokenHash string) (*model.RefreshToken, error)
	GetByID(ctx context.Context, tx *sql.Tx, id string) (*model.RefreshToken, error)
	RevokeIfActive(ctx context.Context, tx *sql.Tx, id string, now time.Time) (bool, error)
	SetReplacedBy(ctx context.Context, tx *sql.Tx, id, replacedBy string) error
	LockFamily(ctx context.Context, tx *sql.Tx, familyID string) error
	RevokeFamily(ctx context.Context, tx *sql.Tx, familyID string, now time.Time) (int64, error)
	RevokeAllForUser(ctx context.Context, tx *sql.Tx, userID string, now time.Time) (int64, error)
	ListActive(ctx context.Context, userID string, now time.Time) ([]*ActiveToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// ActiveToken is a live family tip together with the time its family was created.
type ActiveToken struct {
	model.RefreshToken
	FamilyCreatedAt time.Time
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

const tokenColumns = `id, user_id, token_hash, family_id, parent_id, replaced_by, device_info, ip_address, expires_at, created_at, revoked_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner, extra ...any) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	var parentID, replacedBy sql.NullString
	var revokedAt sql.NullTime
	dest := []any{&token.ID, &token.UserID, &token.TokenHash, &token.FamilyID, &parentID, &replacedBy,
		&token.DeviceInfo, &token.IPAddress, &token.ExpiresAt, &token.CreatedAt, &revokedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if parentID.Valid {
		token.ParentID = &parentID.String
	}
	if replacedBy.Valid {
		token.ReplacedBy = &replacedBy.String
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		token.RevokedAt = &t
	}
	return token, nil
}

// Create inserts a new refresh token record. ID and FamilyID are generated when
// empty; an empty FamilyID therefore starts a new family.
func (r *TokenRepository) Create(ctx context.Context, tx *sql.Tx, token *model.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.FamilyID == "" {
		token.FamilyID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	log := logger.Log.WithFields(logrus.Fields{
		"token_id":   token.ID,
		"family_id":  token.FamilyID,
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing query to create a new refresh token")

	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, family_id, parent_id, device_info, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := tx.ExecContext(ctx, query, token.ID, token.UserID, token.TokenHash, token.FamilyID,
		token.ParentID, token.DeviceInfo, token.IPAddress, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			log.Error("Refresh token hash collision")
			return ErrDuplicateTokenHash
		}
		log.WithError(err).Error("Failed to execute create refresh token query")
		return fmt.Errorf("creating refresh token: %w", err)
	}
	return nil
}

// GetByTokenHash retrieves a refresh token by its hashed value.
// It returns ErrTokenNotFound when no record matches.
func (r *TokenRepository) GetByTokenHash(ctx context.Context, tx *sql.Tx, tokenHash string) (*model.RefreshToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`
	token, err := scanToken(tx.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		logger.Log.WithError(err).Error("Failed to execute get refresh token by hash query")
		return nil, fmt.Errorf("getting refresh token by hash: %w", err)
	}
	return token, nil
}

// GetByID retrieves a refresh token by its record id.
func (r *TokenRepository) GetByID(ctx context.Context, tx *sql.Tx, id string) (*model.RefreshToken, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTokenNotFound
	}

	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE id = $1`
	token, err := scanToken(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		logger.Log.WithError(err).WithField("token_id", id).Error("Failed to execute get refresh token by id query")
		return nil, fmt.Errorf("getting refresh token: %w", err)
	}
	return token, nil
}

// RevokeIfActive sets revoked_at on a record that is still unrevoked and reports
// whether this call was the one that revoked it. Concurrent callers racing on the
// same record serialize on the row lock; exactly one of them sees true.
func (r *TokenRepository) RevokeIfActive(ctx context.Context, tx *sql.Tx, id string, now time.Time) (bool, error) {
	query := `UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	res, err := tx.ExecContext(ctx, query, id, now)
	if err != nil {
		logger.Log.WithError(err).WithField("token_id", id).Error("Failed to execute conditional revoke query")
		return false, fmt.Errorf("revoking refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading revoke result: %w", err)
	}
	return n == 1, nil
}

// SetReplacedBy links a consumed record to its successor. The link is written once.
func (r *TokenRepository) SetReplacedBy(ctx context.Context, tx *sql.Tx, id, replacedBy string) error {
	query := `UPDATE refresh_tokens SET replaced_by = $2 WHERE id = $1 AND replaced_by IS NULL`
	res, err := tx.ExecContext(ctx, query, id, replacedBy)
	if err != nil {
		logger.Log.WithError(err).WithField("token_id", id).Error("Failed to execute set replaced_by query")
		return fmt.Errorf("linking refresh token successor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading replaced_by result: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("refresh token %s already has a successor", id)
	}
	return nil
}

// LockFamily takes the row lock of the family's root record and holds it until the
// transaction ends. Rotations and cascades of one family serialize on this lock, so
// a cascade that acquires it sees every successor committed before it.
func (r *TokenRepository) LockFamily(ctx context.Context, tx *sql.Tx, familyID string) error {
	query := `SELECT id FROM refresh_tokens WHERE family_id = $1 AND parent_id IS NULL FOR UPDATE`
	var rootID string
	err := tx.QueryRowContext(ctx, query, familyID).Scan(&rootID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Log.WithError(err).WithField("family_id", familyID).Error("Failed to execute lock family query")
		return fmt.Errorf("locking token family: %w", err)
	}
	return nil
}

// RevokeFamily revokes every still-valid record of a family and returns how many
// records were revoked. Records revoked earlier keep their original revoked_at.
func (r *TokenRepository) RevokeFamily(ctx context.Context, tx *sql.Tx, familyID string, now time.Time) (int64, error) {
	log := logger.Log.WithField("family_id", familyID)
	log.Info("Executing query to revoke a refresh token family")

	if err := r.LockFamily(ctx, tx, familyID); err != nil {
		return 0, err
	}

	query := `UPDATE refresh_tokens SET revoked_at = $2 WHERE family_id = $1 AND revoked_at IS NULL`
	res, err := tx.ExecContext(ctx, query, familyID, now)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke family query")
		return 0, fmt.Errorf("revoking token family: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading revoke family result: %w", err)
	}
	return n, nil
}

// RevokeAllForUser revokes every still-valid record of a principal.
// This is used for logging out from all sessions.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, tx *sql.Tx, userID string, now time.Time) (int64, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to revoke all refresh tokens for a user")

	// Roots are locked in id order so two concurrent calls cannot deadlock.
	lock := `SELECT id FROM refresh_tokens WHERE user_id = $1 AND parent_id IS NULL ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, lock, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute lock user families query")
		return 0, fmt.Errorf("locking token families: %w", err)
	}
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("locking token families: %w", err)
	}
	rows.Close()

	query := `UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`
	res, err := tx.ExecContext(ctx, query, userID, now)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke all query")
		return 0, fmt.Errorf("revoking all tokens for user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading revoke all result: %w", err)
	}
	return n, nil
}

// ListActive returns the unrevoked, unexpired records of a principal, newest first.
// Because rotation revokes the consumed record, these are the live family tips.
func (r *TokenRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]*ActiveToken, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to list active refresh tokens")

	query := `SELECT t.id, t.user_id, t.token_hash, t.family_id, t.parent_id, t.replaced_by, t.device_info, t.ip_address,
			t.expires_at, t.created_at, t.revoked_at,
			(SELECT MIN(f.created_at) FROM refresh_tokens f WHERE f.family_id = t.family_id) AS family_created_at
		FROM refresh_tokens t
		WHERE t.user_id = $1 AND t.revoked_at IS NULL AND t.expires_at > $2
		ORDER BY t.created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID, now)
	if err != nil {
		log.WithError(err).Error("Failed to execute list active refresh tokens query")
		return nil, fmt.Errorf("listing active tokens: %w", err)
	}
	defer rows.Close()

	tokens := []*ActiveToken{}
	for rows.Next() {
		var familyCreatedAt time.Time
		token, err := scanToken(rows, &familyCreatedAt)
		if err != nil {
			log.WithError(err).Error("Failed to scan refresh token row")
			return nil, fmt.Errorf("scanning token: %w", err)
		}
		tokens = append(tokens, &ActiveToken{RefreshToken: *token, FamilyCreatedAt: familyCreatedAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tokens: %w", err)
	}
	return tokens, nil
}

// DeleteExpired removes families whose every record expired before the cutoff.
// Families with a record still inside its lifetime are kept whole so that a
// replayed ancestor is still recognized as reuse rather than as an unknown token.
func (r *TokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE family_id IN (
			SELECT family_id FROM refresh_tokens GROUP BY family_id HAVING MAX(expires_at) <= $1
		)`
	res, err := r.DB.ExecContext(ctx, query, before)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete expired refresh tokens query")
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading delete result: %w", err)
	}
	return n, nil
}
