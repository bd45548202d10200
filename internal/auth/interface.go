package auth

import "folio/internal/domain/models"

// JWTVerifier verifies bearer tokens issued by the identity provider.
// The middleware only depends on this interface.
type JWTVerifier interface {
	// VerifyToken validates a JWT and returns its claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier
	Close() error
}
