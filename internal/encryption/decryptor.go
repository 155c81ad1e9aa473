package encryption

import (
	"crypto/hmac"
	"encoding/base64"
	"fmt"

	"github.com/east-technologies/phpseal/internal/artifact"
	"github.com/east-technologies/phpseal/internal/keys"
)

// Decrypt restores the plaintext of an artifact. fileID must carry the
// base name used at encryption time: a wrong name derives a syntactically
// valid but different key, which surfaces as an authentication failure on
// the first chunk, never as partial output.
//
// Chunks are processed in stored order. Per-chunk authentication failures
// return ErrCrypto; an artifact-level HMAC mismatch after all chunks
// decrypted returns ErrIntegrity. In both cases nothing decrypted is
// returned.
func Decrypt(artifactText []byte, fileID string, masterKey []byte) ([]byte, error) {
	parsed, err := artifact.Parse(artifactText)
	if err != nil {
		return nil, err
	}

	return DecryptArtifact(parsed, fileID, masterKey)
}

// DecryptArtifact is Decrypt for an already-parsed artifact.
func DecryptArtifact(parsed *artifact.Artifact, fileID string, masterKey []byte) ([]byte, error) {
	fileKey := keys.FileKey(masterKey, fileID)

	aead, err := newGCM(fileKey)
	if err != nil {
		return nil, err
	}

	var plaintext []byte

	for position, chunk := range parsed.Chunks {
		nonce, err := base64.StdEncoding.DecodeString(chunk.Nonce)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: decoding nonce: %w", artifact.ErrFormat, position, err)
		}

		if len(nonce) != NonceSize {
			return nil, fmt.Errorf("%w: chunk %d: nonce must be %d bytes", artifact.ErrFormat, position, NonceSize)
		}

		data, err := base64.StdEncoding.DecodeString(chunk.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: decoding ciphertext: %w", artifact.ErrFormat, position, err)
		}

		tag, err := base64.StdEncoding.DecodeString(chunk.Tag)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: decoding tag: %w", artifact.ErrFormat, position, err)
		}

		segment, err := aead.Open(nil, nonce, append(data, tag...), nil)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: authentication failed", ErrCrypto, position)
		}

		plaintext = append(plaintext, segment...)
	}

	if !verifyIntegrity(fileKey, parsed) {
		// The chunks authenticated individually but the sequence-level
		// binding does not hold; discard everything.
		return nil, ErrIntegrity
	}

	return plaintext, nil
}

// verifyIntegrity recomputes the order-binding HMAC over the stored chunk
// sequence and compares it against the embedded value in constant time.
func verifyIntegrity(fileKey []byte, parsed *artifact.Artifact) bool {
	expected, err := base64.StdEncoding.DecodeString(parsed.IntegrityHash)
	if err != nil {
		return false
	}

	computed, err := base64.StdEncoding.DecodeString(integrityTag(fileKey, parsed.Chunks))
	if err != nil {
		return false
	}

	return hmac.Equal(computed, expected)
}

// ValidateArtifact reports whether text is structurally a phpseal
// artifact: the type marker and all four field markers are present. Used
// as a cheap pre-check before attempting full decryption.
func ValidateArtifact(text []byte) bool {
	return artifact.Valid(text)
}
