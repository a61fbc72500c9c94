// Package password wraps bcrypt hashing for administrator credentials.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const minLength = 8

var ErrTooShort = errors.New("password_too_short")

func Hash(plain string) (string, error) {
	if len(plain) < minLength {
		return "", ErrTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
