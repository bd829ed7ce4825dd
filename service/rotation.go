// file: service/rotation.go

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

// Refresh exchanges a live refresh secret for a new access token and a new refresh
// secret in the same family.
//
// Presenting a secret that was already consumed or revoked revokes the whole family
// and returns ErrTokenReused. A client retrying after a timeout on a call that did
// succeed lands here too; it cannot be told apart from a stolen token and is
// rejected the same way. Do not add a grace window.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string, meta model.ClientMeta) (*model.TokenPair, error) {
	if rawRefresh == "" {
		return nil, ErrTokenMissing
	}
	if !wellFormedRefreshSecret(rawRefresh) {
		return nil, ErrTokenInvalid
	}

	hash := HashRefreshSecret(rawRefresh)
	now := s.now().UTC()

	var (
		outcome error
		current *model.RefreshToken
		pair    *model.TokenPair
	)

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		token, err := s.tokenRepo.GetByTokenHash(ctx, tx, hash)
		if err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				outcome = ErrTokenInvalid
				return nil
			}
			return err
		}
		current = token

		// Everything below runs under the family lock, so a concurrent rotation of
		// this family has either committed its successor or not started.
		if err := s.tokenRepo.LockFamily(ctx, tx, token.FamilyID); err != nil {
			return err
		}

		if token.IsRevoked() {
			outcome = ErrTokenReused
			return s.revokeFamily(ctx, tx, token, now)
		}

		if token.IsExpired(now) {
			if _, err := s.tokenRepo.RevokeIfActive(ctx, tx, token.ID, now); err != nil {
				return err
			}
			outcome = ErrTokenExpired
			return nil
		}

		// The conditional update is the mutex: of two requests holding the same
		// secret only one can flip revoked_at, the other sees zero rows.
		won, err := s.tokenRepo.RevokeIfActive(ctx, tx, token.ID, now)
		if err != nil {
			return err
		}
		if !won {
			outcome = ErrTokenReused
			return s.revokeFamily(ctx, tx, token, now)
		}

		user, err := s.userRepo.GetUserByID(ctx, token.UserID)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		if user == nil || !user.IsActive() {
			outcome = ErrAccountInactive
			return s.revokeFamily(ctx, tx, token, now)
		}

		raw, childHash, err := NewRefreshSecret()
		if err != nil {
			return err
		}
		child := &model.RefreshToken{
			UserID:     token.UserID,
			TokenHash:  childHash,
			FamilyID:   token.FamilyID,
			ParentID:   &token.ID,
			DeviceInfo: firstNonEmpty(meta.DeviceInfo, token.DeviceInfo),
			IPAddress:  firstNonEmpty(meta.IPAddress, token.IPAddress),
			ExpiresAt:  now.Add(s.refreshTTL),
			CreatedAt:  now,
		}
		if err := s.tokenRepo.Create(ctx, tx, child); err != nil {
			return err
		}
		if err := s.tokenRepo.SetReplacedBy(ctx, tx, token.ID, child.ID); err != nil {
			return err
		}

		pair, err = s.issuePair(user, raw, child, now)
		if err != nil {
			return err
		}

		logger.Log.WithFields(logrus.Fields{
			"user_id":   token.UserID,
			"family_id": token.FamilyID,
			"token_id":  token.ID,
			"successor": child.ID,
		}).Info("Refresh token rotated")
		return nil
	})
	if err != nil {
		logger.Log.WithError(err).Error("Refresh token rotation failed")
		return nil, err
	}

	if outcome != nil {
		logRefreshOutcome(outcome, current)
		return nil, outcome
	}
	return pair, nil
}

func (s *AuthService) revokeFamily(ctx context.Context, tx *sql.Tx, token *model.RefreshToken, now time.Time) error {
	_, err := s.tokenRepo.RevokeFamily(ctx, tx, token.FamilyID, now)
	return err
}

func logRefreshOutcome(outcome error, token *model.RefreshToken) {
	log := logger.Log.WithField("outcome", outcome.Error())
	if token != nil {
		log = log.WithFields(logrus.Fields{
			"user_id":   token.UserID,
			"family_id": token.FamilyID,
			"token_id":  token.ID,
		})
	}

	switch {
	case errors.Is(outcome, ErrTokenReused):
		log.WithField("security_event", "refresh_token_reuse").Warn("Refresh token reuse detected, token family revoked")
	case errors.Is(outcome, ErrAccountInactive):
		log.Warn("Refresh attempted for inactive account, token family revoked")
	default:
		log.Info("Refresh rejected")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
