package repository

import (
	"context"
	"database/sql"
	"errors"
	"maison-auth-api/logger"
	"maison-auth-api/model"
)

// IUserRepository is the read-only principal lookup used by authentication.
type IUserRepository interface {
	GetUserByEmailHash(ctx context.Context, emailHash string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const selectUser = `SELECT u.id, u.condominium_id, u.name, u.role, u.status, u.password_hash, un.block, un.number, u.created_at
	FROM users u LEFT JOIN units un ON un.id = u.unit_id`

// GetUserByEmailHash looks a principal up by the sha256 hex of its lower-cased email.
func (r *UserRepository) GetUserByEmailHash(ctx context.Context, emailHash string) (*model.User, error) {
	query := selectUser + ` WHERE u.email_hash = $1 AND u.deleted_at IS NULL`
	return r.scanUser(r.DB.QueryRowContext(ctx, query, emailHash))
}

// GetUserByID loads a principal that has not been deleted.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := selectUser + ` WHERE u.id = $1 AND u.deleted_at IS NULL`
	return r.scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var block, number sql.NullString
	err := row.Scan(&user.ID, &user.CondominiumID, &user.Name, &user.Role, &user.Status,
		&user.PasswordHash, &block, &number, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		logger.Log.WithError(err).Error("Failed to execute get user query")
		return nil, err
	}
	if block.Valid {
		user.UnitBlock = &block.String
	}
	if number.Valid {
		user.UnitNumber = &number.String
	}
	return user, nil
}
