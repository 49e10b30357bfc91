// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	dErrors "appetite/pkg/domain-errors"
)

const (
	temporaryLength  = 12
	temporaryCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%"
)

// ErrMismatch is returned by Verify when the password is wrong.
var ErrMismatch = errors.New("password mismatch")

// Hash creates a bcrypt hash of plain.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plain matches hash and ErrMismatch when it does not.
func Verify(plain, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("could not verify password: %w", err)
	}
	return nil
}

// GenerateTemporary returns a random 12-character password.
func GenerateTemporary() (string, error) {
	out := make([]byte, temporaryLength)
	max := big.NewInt(int64(len(temporaryCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("could not generate password: %w", err)
		}
		out[i] = temporaryCharset[n.Int64()]
	}
	return string(out), nil
}
