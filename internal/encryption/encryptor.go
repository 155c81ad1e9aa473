// Package encryption implements the phpseal pipeline: chunked
// AES-256-GCM under per-file keys, an order-binding HMAC over the chunk
// sequence, and batch processing of files.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/east-technologies/phpseal/internal/artifact"
	"github.com/east-technologies/phpseal/internal/keys"
)

const (
	// DefaultChunkSize is the plaintext segment size in bytes.
	DefaultChunkSize = 8192

	// NonceSize is the GCM nonce size in bytes.
	NonceSize = 12
)

// Encrypt turns plaintext into an artifact under the per-file key derived
// from (masterKey, fileID). The salt is the batch salt recorded alongside
// the master key; it is embedded in the artifact for compatibility but
// plays no role in the per-file derivation.
func Encrypt(plaintext []byte, fileID string, masterKey, salt []byte, chunkSize int) (*artifact.Artifact, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	fileKey := keys.FileKey(masterKey, fileID)

	aead, err := newGCM(fileKey)
	if err != nil {
		return nil, err
	}

	// One vestigial IV per file, shared by every chunk record. Decryption
	// never reads it, but the chunk shape is part of the artifact contract.
	fileIV := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, fileIV); err != nil {
		return nil, fmt.Errorf("%w: generating IV: %w", ErrCrypto, err)
	}

	ivB64 := base64.StdEncoding.EncodeToString(fileIV)

	var chunks []artifact.Chunk

	for index, offset := 0, 0; offset < len(plaintext); index, offset = index+1, offset+chunkSize {
		end := min(offset+chunkSize, len(plaintext))

		chunk, err := sealChunk(aead, plaintext[offset:end], ivB64, index)
		if err != nil {
			return nil, err
		}

		chunks = append(chunks, chunk)
	}

	return &artifact.Artifact{
		FileKey:       base64.StdEncoding.EncodeToString(fileKey),
		Salt:          base64.StdEncoding.EncodeToString(salt),
		IntegrityHash: integrityTag(fileKey, chunks),
		Chunks:        chunks,
	}, nil
}

// sealChunk encrypts one plaintext segment with a fresh random nonce and
// splits the GCM output into ciphertext and tag.
func sealChunk(aead cipher.AEAD, segment []byte, ivB64 string, index int) (artifact.Chunk, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return artifact.Chunk{}, fmt.Errorf("%w: generating nonce: %w", ErrCrypto, err)
	}

	sealed := aead.Seal(nil, nonce, segment, nil)

	// Seal appends the 16-byte tag to the ciphertext; the artifact stores
	// them as separate fields.
	split := len(sealed) - aead.Overhead()
	data, tag := sealed[:split], sealed[split:]

	return artifact.Chunk{
		IV:    ivB64,
		Nonce: base64.StdEncoding.EncodeToString(nonce),
		Data:  base64.StdEncoding.EncodeToString(data),
		Tag:   base64.StdEncoding.EncodeToString(tag),
		Index: index,
	}, nil
}

// integrityTag computes the order-binding HMAC over the chunk sequence.
// The MAC covers the base64 text of nonce, ciphertext, and tag in stored
// order, the exact byte stream existing artifacts authenticate, so any
// reordering, truncation, or mutation of chunks changes the input.
func integrityTag(fileKey []byte, chunks []artifact.Chunk) string {
	mac := hmac.New(sha256.New, fileKey)

	for _, chunk := range chunks {
		io.WriteString(mac, chunk.Nonce)
		io.WriteString(mac, chunk.Data)
		io.WriteString(mac, chunk.Tag)
	}

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// newGCM builds the AES-256-GCM primitive for a 32-byte key.
func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: creating cipher: %w", ErrCrypto, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: creating GCM: %w", ErrCrypto, err)
	}

	return aead, nil
}
