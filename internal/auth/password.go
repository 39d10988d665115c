package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword - bcrypt hash with the default cost
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword - true when the password matches the hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
