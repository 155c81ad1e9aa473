package encryption_test

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/east-technologies/phpseal/internal/artifact"
	"github.com/east-technologies/phpseal/internal/encryption"
	"github.com/east-technologies/phpseal/internal/keys"
)

func testMasterKey(t *testing.T) []byte {
	t.Helper()

	key := make([]byte, keys.MasterKeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	return key
}

func testSalt(t *testing.T) []byte {
	t.Helper()

	salt := make([]byte, keys.SaltSize)
	_, err := rand.Read(salt)
	require.NoError(t, err)

	return salt
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	master := testMasterKey(t)

	plaintext := []byte("<?php\necho 'hello';\n")

	art, err := encryption.Encrypt(plaintext, "index.php", master, testSalt(t), 0)
	require.NoError(t, err)

	rendered, err := art.Render()
	require.NoError(t, err)

	restored, err := encryption.Decrypt(rendered, "index.php", master)
	require.NoError(t, err)
	assert.Equal(t, plaintext, restored)
}

func TestChunkingScenario(t *testing.T) {
	t.Parallel()

	// 20,000 bytes with the default 8,192-byte chunking: exactly three
	// chunks of 8192, 8192, and 3616 bytes.
	master := testMasterKey(t)

	plaintext := make([]byte, 20_000)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	art, err := encryption.Encrypt(plaintext, "big.php", master, testSalt(t), encryption.DefaultChunkSize)
	require.NoError(t, err)
	require.Len(t, art.Chunks, 3)

	for i, wantLen := range []int{8192, 8192, 3616} {
		data, err := base64.StdEncoding.DecodeString(art.Chunks[i].Data)
		require.NoError(t, err)
		assert.Len(t, data, wantLen, "chunk %d", i)
		assert.Equal(t, i, art.Chunks[i].Index)
	}

	restored, err := encryption.DecryptArtifact(art, "big.php", master)
	require.NoError(t, err)
	require.Len(t, restored, 20_000)
	assert.Equal(t, plaintext, restored)
}

func TestEmptyPlaintext(t *testing.T) {
	t.Parallel()

	master := testMasterKey(t)

	art, err := encryption.Encrypt(nil, "empty.php", master, testSalt(t), 0)
	require.NoError(t, err)
	assert.Empty(t, art.Chunks)

	restored, err := encryption.DecryptArtifact(art, "empty.php", master)
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestWrongFileIdentifierFailsClosed(t *testing.T) {
	t.Parallel()

	master := testMasterKey(t)

	art, err := encryption.Encrypt([]byte("secret"), "a.php", master, testSalt(t), 0)
	require.NoError(t, err)

	// Derivation always succeeds syntactically; the wrong key shows up as
	// an authentication failure, never as partial plaintext.
	_, err = encryption.DecryptArtifact(art, "b.php", master)
	require.ErrorIs(t, err, encryption.ErrCrypto)
}

func TestWrongMasterKeyFailsClosed(t *testing.T) {
	t.Parallel()

	art, err := encryption.Encrypt([]byte("secret"), "a.php", testMasterKey(t), testSalt(t), 0)
	require.NoError(t, err)

	_, err = encryption.DecryptArtifact(art, "a.php", testMasterKey(t))
	require.ErrorIs(t, err, encryption.ErrCrypto)
}

// flipBit decodes a base64 field, flips one bit, and re-encodes it.
func flipBit(t *testing.T, encoded string, bit int) string {
	t.Helper()

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	raw[bit/8] ^= 1 << (bit % 8)

	return base64.StdEncoding.EncodeToString(raw)
}

func TestTamperedChunkFields(t *testing.T) {
	t.Parallel()

	master := testMasterKey(t)

	plaintext := bytes.Repeat([]byte("tamper-evident "), 100)

	encrypt := func() *artifact.Artifact {
		art, err := encryption.Encrypt(plaintext, "t.php", master, testSalt(t), 256)
		require.NoError(t, err)
		require.Greater(t, len(art.Chunks), 1)

		return art
	}

	tests := []struct {
		name   string
		mutate func(*artifact.Artifact)
	}{
		{"ciphertext bit", func(a *artifact.Artifact) {
			a.Chunks[1].Data = flipBit(t, a.Chunks[1].Data, 13)
		}},
		{"nonce bit", func(a *artifact.Artifact) {
			a.Chunks[0].Nonce = flipBit(t, a.Chunks[0].Nonce, 0)
		}},
		{"tag bit", func(a *artifact.Artifact) {
			last := len(a.Chunks) - 1
			a.Chunks[last].Tag = flipBit(t, a.Chunks[last].Tag, 127)
		}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			art := encrypt()
			tc.mutate(art)

			restored, err := encryption.DecryptArtifact(art, "t.php", master)
			require.Error(t, err)
			assert.Nil(t, restored, "tampering must never yield plaintext")
			assert.True(t,
				errors.Is(err, encryption.ErrCrypto) || errors.Is(err, encryption.ErrIntegrity),
				"want ErrCrypto or ErrIntegrity, got %v", err)
		})
	}
}

func TestChunkSwapBreaksIntegrity(t *testing.T) {
	t.Parallel()

	master := testMasterKey(t)

	plaintext := bytes.Repeat([]byte("order matters "), 200)

	art, err := encryption.Encrypt(plaintext, "o.php", master, testSalt(t), 512)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(art.Chunks), 2)

	// Each chunk stays individually authentic, so the per-chunk pass
	// succeeds; the sequence-level HMAC must refuse the reordering.
	art.Chunks[0], art.Chunks[1] = art.Chunks[1], art.Chunks[0]

	restored, err := encryption.DecryptArtifact(art, "o.php", master)
	require.ErrorIs(t, err, encryption.ErrIntegrity)
	assert.Nil(t, restored)
}

func TestTruncatedChunkListBreaksIntegrity(t *testing.T) {
	t.Parallel()

	master := testMasterKey(t)

	art, err := encryption.Encrypt(bytes.Repeat([]byte{0x42}, 2048), "c.php", master, testSalt(t), 512)
	require.NoError(t, err)
	require.Greater(t, len(art.Chunks), 1)

	art.Chunks = art.Chunks[:len(art.Chunks)-1]

	_, err = encryption.DecryptArtifact(art, "c.php", master)
	require.ErrorIs(t, err, encryption.ErrIntegrity)
}

func TestDecryptMalformedArtifact(t *testing.T) {
	t.Parallel()

	_, err := encryption.Decrypt([]byte("not an artifact"), "x.php", testMasterKey(t))
	require.ErrorIs(t, err, artifact.ErrFormat)
}

func TestValidateArtifact(t *testing.T) {
	t.Parallel()

	art, err := encryption.Encrypt([]byte("x"), "v.php", testMasterKey(t), testSalt(t), 0)
	require.NoError(t, err)

	rendered, err := art.Render()
	require.NoError(t, err)

	assert.True(t, encryption.ValidateArtifact(rendered))
	assert.False(t, encryption.ValidateArtifact([]byte("<?php phpinfo();")))
}

func TestRoundTripProperty(t *testing.T) {
	t.Parallel()

	master := testMasterKey(t)
	salt := testSalt(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("decrypt restores encrypt exactly", prop.ForAll(
		func(data []byte, name string, chunkSize int) bool {
			art, err := encryption.Encrypt(data, name+".php", master, salt, chunkSize)
			if err != nil {
				return false
			}

			rendered, err := art.Render()
			if err != nil {
				return false
			}

			restored, err := encryption.Decrypt(rendered, name+".php", master)
			if err != nil {
				return false
			}

			return bytes.Equal(data, restored)
		},
		gen.SliceOf(gen.UInt8()),
		gen.Identifier(),
		gen.IntRange(1, 4096),
	))

	properties.TestingRun(t)
}

func TestNonceUniquenessProperty(t *testing.T) {
	t.Parallel()

	master := testMasterKey(t)
	salt := testSalt(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("no nonce repeats within one encryption", prop.ForAll(
		func(size int) bool {
			data := make([]byte, size)

			art, err := encryption.Encrypt(data, "n.php", master, salt, 64)
			if err != nil {
				return false
			}

			seen := make(map[string]struct{}, len(art.Chunks))

			for _, chunk := range art.Chunks {
				if _, dup := seen[chunk.Nonce]; dup {
					return false
				}

				seen[chunk.Nonce] = struct{}{}
			}

			return true
		},
		gen.IntRange(0, 64*256),
	))

	properties.TestingRun(t)
}
