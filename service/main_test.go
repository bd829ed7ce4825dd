// service/main_test.go
package service

import (
	"context"
	"database/sql"
	"maison-auth-api/logger"
	"maison-auth-api/model"
	"maison-auth-api/repository"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

// TestMain runs setup before any tests in this package are executed.
func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// MockUserRepository is a mock for IUserRepository.
type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) GetUserByEmailHash(ctx context.Context, emailHash string) (*model.User, error) {
	args := m.Called(ctx, emailHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockTokenRepository is a mock for ITokenRepository.
type MockTokenRepository struct{ mock.Mock }

func (m *MockTokenRepository) Create(ctx context.Context, tx *sql.Tx, token *model.RefreshToken) error {
	args := m.Called(ctx, tx, token)
	if token.ID == "" {
		token.ID = "generated-id"
	}
	if token.FamilyID == "" {
		token.FamilyID = "generated-family"
	}
	return args.Error(0)
}

func (m *MockTokenRepository) GetByTokenHash(ctx context.Context, tx *sql.Tx, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}

func (m *MockTokenRepository) GetByID(ctx context.Context, tx *sql.Tx, id string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}

func (m *MockTokenRepository) RevokeIfActive(ctx context.Context, tx *sql.Tx, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, tx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) SetReplacedBy(ctx context.Context, tx *sql.Tx, id, replacedBy string) error {
	args := m.Called(ctx, tx, id, replacedBy)
	return args.Error(0)
}

func (m *MockTokenRepository) LockFamily(ctx context.Context, tx *sql.Tx, familyID string) error {
	return m.Called(ctx, tx, familyID).Error(0)
}

func (m *MockTokenRepository) RevokeFamily(ctx context.Context, tx *sql.Tx, familyID string, now time.Time) (int64, error) {
	args := m.Called(ctx, tx, familyID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) RevokeAllForUser(ctx context.Context, tx *sql.Tx, userID string, now time.Time) (int64, error) {
	args := m.Called(ctx, tx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]*repository.ActiveToken, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.ActiveToken), args.Error(1)
}

func (m *MockTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// plainComparator stands in for bcrypt: a hash matches when it is "plain:"+password.
type plainComparator struct{}

func (plainComparator) Compare(hash, password string) bool {
	return hash == "plain:"+password
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

const testSecret = "test-secret-key-that-is-at-least-32-bytes"

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager([]byte(testSecret), 15*time.Minute, "maison-auth-api")
	if err != nil {
		t.Fatalf("NewTokenManager() returned an unexpected error: %v", err)
	}
	return m.WithClock(fixedClock)
}

func activeUser() *model.User {
	block, number := "A", "101"
	return &model.User{
		ID:            "11111111-1111-1111-1111-111111111111",
		CondominiumID: "22222222-2222-2222-2222-222222222222",
		Name:          "Maria Silva",
		Role:          model.RoleResident,
		Status:        model.StatusActive,
		PasswordHash:  "plain:correct-password",
		UnitBlock:     &block,
		UnitNumber:    &number,
	}
}
