package models

import "github.com/golang-jwt/jwt/v5"

// Claims represents the JWT claims issued by the external identity provider.
// Only the subject is required; it is the owner id used throughout the drive.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
