package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTokenTTL applies when a caller passes ttl <= 0. Endpoints
// normally pass the configured TTL instead.
const defaultTokenTTL = 15 * time.Minute

func signToken(secret []byte, subject string, ttl time.Duration, now time.Time) (string, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseToken returns the subject of a valid HS256 token. Signature,
// algorithm and expiry failures all collapse to ErrInvalidToken.
func parseToken(secret []byte, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
