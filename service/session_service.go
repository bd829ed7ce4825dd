// file: service/session_service.go

package service

import (
	"context"
	"database/sql"
	"errors"
	"maison-auth-api/logger"
	"maison-auth-api/model"
	"maison-auth-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionService lists and revokes a principal's token families.
type SessionService struct {
	db        *sql.DB
	tokenRepo repository.ITokenRepository
	now       func() time.Time
}

func NewSessionService(db *sql.DB, tokenRepo repository.ITokenRepository) *SessionService {
	return &SessionService{db: db, tokenRepo: tokenRepo, now: time.Now}
}

// WithClock replaces the clock used to decide which sessions are live.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// ListSessions returns one entry per family whose live tip has not expired.
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	tokens, err := s.tokenRepo.ListActive(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(tokens))
	sessions := make([]*model.Session, 0, len(tokens))
	for _, t := range tokens {
		// Rows come newest first; a family only ever has one live tip, but the
		// newest wins should that invariant ever be broken.
		if seen[t.FamilyID] {
			logger.Log.WithFields(logrus.Fields{
				"user_id":   userID,
				"family_id": t.FamilyID,
			}).Error("Token family has more than one live record")
			continue
		}
		seen[t.FamilyID] = true

		sessions = append(sessions, &model.Session{
			ID:         t.ID,
			FamilyID:   t.FamilyID,
			DeviceInfo: t.DeviceInfo,
			IPAddress:  t.IPAddress,
			CreatedAt:  t.FamilyCreatedAt,
			LastUsedAt: t.CreatedAt,
			ExpiresAt:  t.ExpiresAt,
		})
	}
	return sessions, nil
}

// RevokeSession ends the family containing recordID. A record that does not exist
// and a record owned by someone else both yield ErrSessionNotFound.
func (s *SessionService) RevokeSession(ctx context.Context, userID, recordID string) error {
	now := s.now().UTC()
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":  userID,
		"token_id": recordID,
	})

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		token, err := s.tokenRepo.GetByID(ctx, tx, recordID)
		if err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if token.UserID != userID {
			log.Warn("Attempt to revoke a session owned by another user")
			return ErrSessionNotFound
		}

		n, err := s.tokenRepo.RevokeFamily(ctx, tx, token.FamilyID, now)
		if err != nil {
			return err
		}
		log.WithField("family_id", token.FamilyID).WithField("revoked", n).Info("Session revoked")
		return nil
	})
}

// RevokeAllSessions ends every family of the principal.
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID string) (int64, error) {
	var revoked int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		n, err := s.tokenRepo.RevokeAllForUser(ctx, tx, userID, s.now().UTC())
		revoked = n
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.Log.WithField("user_id", userID).WithField("revoked", revoked).Info("All sessions revoked")
	return revoked, nil
}

// PurgeExpired deletes families that are entirely past their expiry.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.tokenRepo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Log.WithField("deleted", n).Info("Expired refresh tokens purged")
	}
	return n, nil
}
