// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"briefly/config"
	"briefly/internal/domain/service"
)

// jwtService verifies dashboard session tokens issued by the main login flow.
// It only validates; minting stays with the identity provider, keeping this
// subsystem out of the main-auth OAuth domain.
type jwtService struct {
	accessSecret string // HS256 secret shared with the identity provider.
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.SessionVerifier, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	return &jwtService{accessSecret: cfg.SecretKey.Access}, nil
}

// VerifyAccessToken checks the signature and expiry of a session token and
// extracts the caller's identity from its claims.
func (s *jwtService) VerifyAccessToken(tokenString string) (*service.SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(s.accessSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected token claims format")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errors.New("token missing subject claim")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("token subject is not a valid user id")
	}

	return &service.SessionClaims{
		UserID: userID,
		Roles:  extractRoles(claims),
	}, nil
}

func extractRoles(claims jwt.MapClaims) []string {
	raw, ok := claims["roles"].([]any)
	if !ok {
		return nil
	}

	roles := make([]string, 0, len(raw))
	for _, item := range raw {
		if role, ok := item.(string); ok {
			roles = append(roles, role)
		}
	}

	return roles
}
