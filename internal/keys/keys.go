// Package keys implements the two-level key scheme used by phpseal:
// a per-batch master key and per-file keys derived from it.
//
// The file-key derivation (PBKDF2 with the file's base name as salt and a
// low iteration count) mirrors the artifact format this tool is compatible
// with. It is deliberately kept as-is: two files with the same base name in
// different directories share a file key, and the iteration count offers no
// meaningful stretching. Do not build new security features on top of it.
package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// MasterKeySize is the size of a master key in bytes.
	MasterKeySize = 32

	// FileKeySize is the size of a derived per-file key in bytes.
	FileKeySize = 32

	// SaltSize is the size of the random salt stored in a key package.
	SaltSize = 16

	// MasterIterations is the PBKDF2 iteration count for password-derived
	// master keys.
	MasterIterations = 100_000

	// FileIterations is the PBKDF2 iteration count for per-file keys.
	// Kept low for compatibility with existing artifacts.
	FileIterations = 1_000
)

// NewMasterKey returns a fresh random 32-byte master key.
func NewMasterKey() ([]byte, error) {
	key := make([]byte, MasterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating master key: %w", err)
	}

	return key, nil
}

// NewSalt returns a fresh random 16-byte salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	return salt, nil
}

// MasterKeyFromPassword derives a 32-byte master key from a password using
// PBKDF2-HMAC-SHA256 with a fresh random salt. The salt is returned so it
// can be persisted in the key package.
func MasterKeyFromPassword(password string) (key, salt []byte, err error) {
	salt, err = NewSalt()
	if err != nil {
		return nil, nil, err
	}

	key = pbkdf2.Key([]byte(password), salt, MasterIterations, MasterKeySize, sha256.New)

	return key, salt, nil
}

// FileKey derives the per-file encryption key for fileID from the master
// key. The salt is the base name of fileID, so identical (master key, base
// name) pairs always yield the identical key regardless of directory.
func FileKey(masterKey []byte, fileID string) []byte {
	salt := []byte(filepath.Base(fileID))

	return pbkdf2.Key(masterKey, salt, FileIterations, FileKeySize, sha256.New)
}
