package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const passwordHashCost = 10

var (
	decoyHashOnce sync.Once
	decoyHash     string
)

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash reports whether password matches the bcrypt hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CheckDecoyPassword burns the same bcrypt work as a real comparison. Login
// calls it for unknown emails so both failure paths take equally long.
func CheckDecoyPassword(password string) {
	decoyHashOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("decoy-password"), passwordHashCost)
		if err == nil {
			decoyHash = string(hash)
		}
	})
	_ = CheckPasswordHash(password, decoyHash)
}
