package service

import "github.com/google/uuid"

// SessionClaims is the identity extracted from a dashboard session token.
type SessionClaims struct {
	UserID uuid.UUID
	Roles  []string
}

// SessionVerifier validates session tokens minted by the external identity
// provider. This subsystem trusts the verified identity completely and
// performs no authentication of its own.
type SessionVerifier interface {
	// VerifyAccessToken checks the signature and expiry of a session token
	// and returns its claims.
	VerifyAccessToken(tokenString string) (*SessionClaims, error)
}
