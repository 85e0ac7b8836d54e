// Package password hashes and verifies user passwords.
//
// The default scheme stores "<salt>:<digest>" where salt is 32 hex characters
// and digest is hex(sha256(password + salt)). It is a single fast hash and
// is kept for compatibility with existing rows. The bcrypt scheme is the
// migration target: Verify accepts both formats and NeedsRehash tells the
// caller when a stored hash should be replaced after a successful login.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"

	separator = ":"
)

type Hasher struct {
	scheme string
}

func New(scheme string) *Hasher {
	if scheme != SchemeBcrypt {
		scheme = SchemeSHA256
	}

	return &Hasher{scheme: scheme}
}

func (h *Hasher) Hash(password string) (string, error) {
	const op = "password.Hash"

	if h.scheme == SchemeBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return string(hash), nil
	}

	salt := strings.ReplaceAll(uuid.NewString(), "-", "")

	return salt + separator + digest(password, salt), nil
}

// NeedsRehash reports whether stored is a legacy hash that should be
// upgraded. bcrypt hashes are never downgraded.
func (h *Hasher) NeedsRehash(stored string) bool {
	return h.scheme == SchemeBcrypt && !isBcrypt(stored)
}

// Verify never fails loudly: a malformed stored value is a mismatch.
func Verify(password, stored string) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}

	parts := strings.Split(stored, separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}

	want := digest(password, parts[0])

	return subtle.ConstantTimeCompare([]byte(want), []byte(parts[1])) == 1
}

func digest(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2")
}
