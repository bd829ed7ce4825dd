package model

import "github.com/golang-jwt/jwt/v5"

// AppClaims is the complete, closed claim set of an access token.
// Subject carries the principal id.
type AppClaims struct {
	CondominiumID string  `json:"condo_id"`
	Role          Role    `json:"role"`
	Name          string  `json:"name"`
	Unit          *string `json:"unit"`
	jwt.RegisteredClaims
}
