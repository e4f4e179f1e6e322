package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer mints the session tokens handed out by login and signup.
type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(signingKey []byte, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: signingKey, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for userID acting as role.
func (t *TokenIssuer) Issue(userID, role, patientID string) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role:      role,
		PatientID: patientID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Config returns the verifier settings matching this issuer.
func (t *TokenIssuer) Config() JWTConfig {
	return JWTConfig{Issuer: t.issuer, SigningKey: t.key}
}
