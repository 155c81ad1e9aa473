package encryption

import "errors"

var (
	// ErrCrypto indicates an AEAD primitive failed: encryption itself, or
	// a per-chunk authentication failure during decryption.
	ErrCrypto = errors.New("crypto failure")

	// ErrIntegrity indicates the artifact-level HMAC did not match after
	// every chunk decrypted cleanly. The plaintext is discarded.
	ErrIntegrity = errors.New("integrity verification failed")
)
