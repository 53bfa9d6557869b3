package identity

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates bearer JWTs minted by the identity platform.
// This service never issues tokens; it only extracts the actor reference
// and leaves role resolution to the Provider. Role claims embedded in raw
// tokens are ignored.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier builds a verifier for the shared signing secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Claims describes the verified JWT payload.
type Claims struct {
	ActorRef string `json:"sub"`
	jwt.RegisteredClaims
}

// Verify validates the token and returns its claims.
func (tv *TokenVerifier) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tv.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}
