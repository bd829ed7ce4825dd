// file: service/password.go

package service

import (
	"maison-auth-api/logger"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const passwordHashCost = 12

// PasswordComparator checks a plaintext password against a stored hash.
type PasswordComparator interface {
	Compare(hash, password string) bool
}

// BcryptComparator compares bcrypt hashes.
type BcryptComparator struct{}

func (BcryptComparator) Compare(hash, password string) bool {
	return CheckPasswordHash(password, hash)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummyPasswordHash is compared against when the identifier is unknown, so that
// a miss costs the same as a wrong password.
func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("maison-auth-dummy-password"), passwordHashCost)
		if err == nil {
			dummyHash = string(h)
		}
	})
	return dummyHash
}
