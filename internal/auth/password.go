package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a one-way bcrypt hash for storage; the plaintext
// is never persisted or compared directly.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
