package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var secret = []byte("test-secret")

func Test_Token_RoundTrip(t *testing.T) {
	tok, err := signToken(secret, "user-123", time.Minute, time.Now())
	assert.NoError(t, err)

	sub, err := parseToken(secret, tok)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func Test_Token_DefaultTTL(t *testing.T) {
	// ttl <= 0 falls back to the 15 minute default rather than
	// producing an already-expired token
	tok, err := signToken(secret, "user-123", 0, time.Now())
	assert.NoError(t, err)

	sub, err := parseToken(secret, tok)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func Test_Token_Expired(t *testing.T) {
	tok, err := signToken(secret, "user-123", time.Minute, time.Now().Add(-2*time.Hour))
	assert.NoError(t, err)

	_, err = parseToken(secret, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func Test_Token_WrongSecret(t *testing.T) {
	tok, err := signToken(secret, "user-123", time.Minute, time.Now())
	assert.NoError(t, err)

	_, err = parseToken([]byte("other-secret"), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func Test_Token_Garbage(t *testing.T) {
	_, err := parseToken(secret, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
