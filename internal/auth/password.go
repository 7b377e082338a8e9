// Package auth handles credentials: bcrypt password hashes, signed JWT access
// tokens, and the middleware that turns a token into an authenticated username.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, and that slowness is what makes brute-forcing a
// leaked users table expensive. It generates a random salt per hash and embeds
// it in the output, so the password column is the only thing we store:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
//
// Never store passwords in plain text or behind a fast hash such as SHA-256.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used in production (~250ms per hash).
//
// COST TUNING RULE OF THUMB:
// pick the cost so one hash takes 200 to 300ms on production hardware. Lower
// is easy to crack; higher makes login sluggish under load.
const defaultCost = 12

// MaxPasswordBytes is the longest password bcrypt accepts.
//
// THE 72-BYTE LIMIT:
// bcrypt only reads the first 72 bytes of its input. Two passwords sharing a
// 72-byte prefix would hash identically, so Hash rejects longer input instead
// of letting bcrypt truncate it.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash for input over MaxPasswordBytes.
var ErrPasswordTooLong = fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)

// ErrInvalidPassword is returned by Verify when the password does not match.
var ErrInvalidPassword = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords with bcrypt.
// The cost is a field so tests can use the minimum.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom cost.
// Pass bcrypt.MinCost (4) from tests in other packages. Never use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext. The output embeds salt and cost:
//
//	$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify returns nil if plaintext matches hash and ErrInvalidPassword if it
// does not.
//
// TIMING SAFETY:
// bcrypt.CompareHashAndPassword compares in constant time, so response
// latency does not leak how many leading bytes of a guess were right.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
