// file: model/request.go

package model

// LoginRequest defines the payload for user authentication. Only presence and the
// bcrypt input bound are checked; password rules belong to registration.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// RefreshRequest carries the refresh secret for clients that cannot use cookies.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
