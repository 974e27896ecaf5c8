package service

import "golang.org/x/crypto/bcrypt"

// PasswordHasher hashes and verifies credentials. It is pure over its
// inputs; implementations must verify in constant time.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(digest, plaintext string) bool
}

// BcryptHasher is the production PasswordHasher. The zero value uses
// bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether digest was produced from plaintext. bcrypt's
// comparison is constant-time over the hash output.
func (h BcryptHasher) Verify(digest, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
