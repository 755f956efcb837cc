// Package password derives and verifies salted password digests.
//
// Digests have the form hex(salt) + ":" + hex(key) where key is derived with
// PBKDF2-HMAC-SHA256. A digest that does not have that form is a data
// integrity problem and is reported as an error, never as a failed match.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen    = 32
	keyLen     = 32
	iterations = 100000
)

// Hash derives a digest for the given plaintext with a fresh random salt.
func Hash(plain string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(plain), salt, iterations, keyLen, sha256.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify reports whether candidate matches the stored digest. A malformed
// digest returns a non-nil error.
func Verify(digest, candidate string) (bool, error) {
	saltHex, keyHex, ok := strings.Cut(digest, ":")
	if !ok {
		return false, fmt.Errorf("malformed password digest")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, fmt.Errorf("malformed password digest salt: %w", err)
	}
	stored, err := hex.DecodeString(keyHex)
	if err != nil {
		return false, fmt.Errorf("malformed password digest key: %w", err)
	}
	derived := pbkdf2.Key([]byte(candidate), salt, iterations, len(stored), sha256.New)
	return subtle.ConstantTimeCompare(stored, derived) == 1, nil
}
