package dto

import "time"

// TokenRequest carries operator credentials.
type TokenRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
