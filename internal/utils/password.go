package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt work-factor bounds.  BCRYPT_COST outside this range is a
// misconfiguration; clamping keeps registration and login working
// instead of failing at hash time.  14 is the ceiling because higher
// costs push a single login past interactive latency.
const (
	defaultHashCost = 12
	minHashCost     = bcrypt.MinCost
	maxHashCost     = 14
)

// ErrEmptyPassword rejects blank passwords before they reach bcrypt.
var ErrEmptyPassword = errors.New("password must not be empty")

func normalizeCost(cost int) int {
	switch {
	case cost <= 0:
		return defaultHashCost
	case cost < minHashCost:
		return minHashCost
	case cost > maxHashCost:
		return maxHashCost
	}
	return cost
}

// HashPassword returns the bcrypt hash of plain using the configured
// work factor, clamped to the package bounds.
func HashPassword(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), normalizeCost(cost))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordStale reports whether a stored hash carries a lower work
// factor than the configured cost.  Login rehashes stale credentials
// opportunistically, so raising BCRYPT_COST upgrades accounts as
// members sign in.
func PasswordStale(hash string, cost int) bool {
	c, err := bcrypt.Cost([]byte(hash))
	return err == nil && c < normalizeCost(cost)
}
