package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"maison-auth-api/logger"
	"maison-auth-api/model"
	"maison-auth-api/repository"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AuthService verifies credentials and owns the refresh token lifecycle:
// it starts a token family at login, rotates it on refresh and ends it at logout.
type AuthService struct {
	db         *sql.DB
	userRepo   repository.IUserRepository
	tokenRepo  repository.ITokenRepository
	tokens     *TokenManager
	passwords  PasswordComparator
	limiter    LoginAttemptLimiter
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(db *sql.DB, userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository, tokens *TokenManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		db:         db,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		tokens:     tokens,
		passwords:  BcryptComparator{},
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithLimiter enables login throttling.
func (s *AuthService) WithLimiter(limiter LoginAttemptLimiter) *AuthService {
	s.limiter = limiter
	return s
}

// WithPasswordComparator replaces the bcrypt comparator.
func (s *AuthService) WithPasswordComparator(c PasswordComparator) *AuthService {
	s.passwords = c
	return s
}

// WithClock replaces the clock used for issuing, expiring and revoking tokens.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// EmailHash is the lookup key of a principal: sha256 hex of the lower-cased email.
func EmailHash(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// Authenticate checks an email and password pair and returns the principal.
// Unknown emails and wrong passwords yield the same ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	key := EmailHash(email)

	if s.limiter != nil {
		if err := s.limiter.Attempt(ctx, key); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.GetUserByEmailHash(ctx, key)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if user == nil {
		s.passwords.Compare(dummyPasswordHash(), password)
		return nil, ErrInvalidCredentials
	}
	if !s.passwords.Compare(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountInactive
	}

	if s.limiter != nil {
		s.limiter.Reset(ctx, key)
	}
	return user, nil
}

// Login authenticates the principal and starts a new token family.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, meta model.ClientMeta) (*model.TokenPair, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	raw, hash, err := NewRefreshSecret()
	if err != nil {
		return nil, err
	}

	root := &model.RefreshToken{
		UserID:     user.ID,
		TokenHash:  hash,
		DeviceInfo: meta.DeviceInfo,
		IPAddress:  meta.IPAddress,
		ExpiresAt:  now.Add(s.refreshTTL),
		CreatedAt:  now,
	}

	var pair *model.TokenPair
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.tokenRepo.Create(ctx, tx, root); err != nil {
			return err
		}
		pair, err = s.issuePair(user, raw, root, now)
		return err
	})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to start session")
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"family_id": root.FamilyID,
	}).Info("User logged in, new token family started")
	return pair, nil
}

func (s *AuthService) issuePair(user *model.User, rawRefresh string, record *model.RefreshToken, now time.Time) (*model.TokenPair, error) {
	access, _, err := s.tokens.Issue(user, now)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{
		AccessToken:      access,
		TokenType:        "bearer",
		ExpiresIn:        int64(s.tokens.TTL().Seconds()),
		RefreshToken:     rawRefresh,
		RefreshExpiresAt: record.ExpiresAt,
		User:             user.Summary(),
	}, nil
}

// Logout ends the family of the presented refresh secret. An absent or unknown
// secret is not an error: there is nothing left to revoke.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" || !wellFormedRefreshSecret(rawRefresh) {
		return nil
	}
	hash := HashRefreshSecret(rawRefresh)
	now := s.now().UTC()

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		token, err := s.tokenRepo.GetByTokenHash(ctx, tx, hash)
		if err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				return nil
			}
			return err
		}
		n, err := s.tokenRepo.RevokeFamily(ctx, tx, token.FamilyID, now)
		if err != nil {
			return err
		}
		logger.Log.WithFields(logrus.Fields{
			"user_id":   token.UserID,
			"family_id": token.FamilyID,
			"revoked":   n,
		}).Info("User logged out, token family revoked")
		return nil
	})
}
