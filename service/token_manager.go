// file: service/token_manager.go

package service

import (
	"errors"
	"fmt"
	"maison-auth-api/logger"
	"maison-auth-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and verifies HS256 access tokens. Verification is purely
// cryptographic and never touches storage.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenManager copies the signing secret; callers may discard theirs afterwards.
func NewTokenManager(secret []byte, ttl time.Duration, issuer string) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenManager{secret: key, ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// WithClock replaces the clock used to validate expiry.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// TTL is the lifetime of issued access tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs an access token for user, valid from now for the configured TTL.
func (m *TokenManager) Issue(user *model.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.ttl)

	claims := &model.AppClaims{
		CondominiumID: user.CondominiumID,
		Role:          user.Role,
		Name:          user.Name,
		Unit:          user.UnitLabel(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign JWT")
		return "", time.Time{}, fmt.Errorf("failed to sign token string: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the claims.
// It fails with ErrTokenExpired or ErrTokenInvalid.
func (m *TokenManager) Verify(tokenString string) (*model.AppClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}

	claims := &model.AppClaims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
