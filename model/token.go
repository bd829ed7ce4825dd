// file: model/token.go

package model

import "time"

// RefreshToken holds the data for a refresh token in the database.
// One login creates a family root; every rotation appends a child with the
// same FamilyID and ParentID pointing at the record it superseded.
type RefreshToken struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	TokenHash  string     `json:"-"` // The hash is not exposed in JSON responses.
	FamilyID   string     `json:"family_id"`
	ParentID   *string    `json:"parent_id,omitempty"`
	ReplacedBy *string    `json:"replaced_by,omitempty"`
	DeviceInfo string     `json:"device_info"`
	IPAddress  string     `json:"ip_address"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// IsRevoked reports whether the record was consumed or explicitly revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired reports whether the record is past its expiry at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// IsRoot reports whether the record started its family.
func (t *RefreshToken) IsRoot() bool {
	return t.ParentID == nil
}

// ClientMeta is descriptive metadata captured at login and refresh.
type ClientMeta struct {
	DeviceInfo string
	IPAddress  string
}

// TokenPair is what a successful login or rotation hands back to the transport layer.
// RefreshToken is the raw secret and must never be logged or persisted.
type TokenPair struct {
	AccessToken      string      `json:"access_token"`
	TokenType        string      `json:"token_type"`
	ExpiresIn        int64       `json:"expires_in"`
	RefreshToken     string      `json:"refresh_token,omitempty"`
	RefreshExpiresAt time.Time   `json:"-"`
	User             UserSummary `json:"user"`
}
