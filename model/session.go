// file: model/session.go

package model

import "time"

// Session is the user-facing view of one token family.
// ID is the family's live tip record id; it is the handle used to revoke it.
type Session struct {
	ID         string    `json:"id"`
	FamilyID   string    `json:"family_id"`
	DeviceInfo string    `json:"device_info"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
