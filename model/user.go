// file: model/user.go

package model

import "time"

// Role is the condominium role carried in access tokens.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleResident  Role = "RESIDENTE"
	RoleDoorman   Role = "PORTEIRO"
	RoleFinancial Role = "FINANCEIRO"
)

// UserStatus is the approval state of a principal.
type UserStatus string

const (
	StatusActive   UserStatus = "ATIVO"
	StatusPending  UserStatus = "PENDENTE"
	StatusInactive UserStatus = "INATIVO"
)

// User is the principal as seen by the authentication layer. It is owned by the
// user management module; this service only reads it.
type User struct {
	ID            string     `json:"id"`
	CondominiumID string     `json:"condo_id"`
	Name          string     `json:"name"`
	Role          Role       `json:"role"`
	Status        UserStatus `json:"status"`
	PasswordHash  string     `json:"-"`
	UnitBlock     *string    `json:"-"`
	UnitNumber    *string    `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsActive reports whether the principal may hold sessions.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UnitLabel renders the unit as "block-number", or just the number when the
// unit has no block. It returns nil for principals without a unit.
func (u *User) UnitLabel() *string {
	if u.UnitNumber == nil {
		return nil
	}
	label := *u.UnitNumber
	if u.UnitBlock != nil && *u.UnitBlock != "" {
		label = *u.UnitBlock + "-" + label
	}
	return &label
}

// UserSummary is the minimal principal view returned after login.
type UserSummary struct {
	ID            string  `json:"id"`
	CondominiumID string  `json:"condo_id"`
	Name          string  `json:"name"`
	Role          Role    `json:"role"`
	Unit          *string `json:"unit"`
}

// Summary builds the login response view of the principal.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:            u.ID,
		CondominiumID: u.CondominiumID,
		Name:          u.Name,
		Role:          u.Role,
		Unit:          u.UnitLabel(),
	}
}
