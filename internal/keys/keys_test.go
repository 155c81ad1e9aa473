package keys_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/east-technologies/phpseal/internal/keys"
)

func TestNewMasterKey(t *testing.T) {
	t.Parallel()

	first, err := keys.NewMasterKey()
	require.NoError(t, err)
	assert.Len(t, first, keys.MasterKeySize)

	second, err := keys.NewMasterKey()
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "two generated master keys must differ")
}

func TestMasterKeyFromPassword(t *testing.T) {
	t.Parallel()

	key, salt, err := keys.MasterKeyFromPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.Len(t, key, keys.MasterKeySize)
	assert.Len(t, salt, keys.SaltSize)

	// Different call, different salt, different key.
	other, otherSalt, err := keys.MasterKeyFromPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, salt, otherSalt)
	assert.NotEqual(t, key, other)
}

func TestFileKeyDeterminism(t *testing.T) {
	t.Parallel()

	master := bytes.Repeat([]byte{0xA5}, keys.MasterKeySize)

	first := keys.FileKey(master, "a.txt")
	second := keys.FileKey(master, "a.txt")
	assert.Equal(t, first, second, "same (master, name) must derive the same key")
	assert.Len(t, first, keys.FileKeySize)

	other := keys.FileKey(master, "b.txt")
	assert.NotEqual(t, first, other, "distinct base names must derive distinct keys")

	otherMaster := bytes.Repeat([]byte{0x5A}, keys.MasterKeySize)
	assert.NotEqual(t, first, keys.FileKey(otherMaster, "a.txt"),
		"distinct master keys must derive distinct file keys")
}

func TestFileKeyUsesBaseName(t *testing.T) {
	t.Parallel()

	master := bytes.Repeat([]byte{0x01}, keys.MasterKeySize)

	// Same base name in different directories shares a key. A known
	// weakness of the derivation scheme, preserved for compatibility.
	assert.Equal(t,
		keys.FileKey(master, filepath.Join("a", "index.php")),
		keys.FileKey(master, filepath.Join("b", "index.php")),
	)
}

func TestPackageRoundTrip(t *testing.T) {
	t.Parallel()

	master, err := keys.NewMasterKey()
	require.NoError(t, err)

	salt, err := keys.NewSalt()
	require.NoError(t, err)

	pkg := keys.NewPackage(master, salt)

	dir := t.TempDir()

	path, err := keys.Save(pkg, dir)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "phpseal_keys_")

	loaded, err := keys.Load(path)
	require.NoError(t, err)
	assert.Equal(t, pkg, loaded)

	gotMaster, gotSalt, err := loaded.Keys()
	require.NoError(t, err)
	assert.Equal(t, master, gotMaster)
	assert.Equal(t, salt, gotSalt)
}

func TestPackageMetadata(t *testing.T) {
	t.Parallel()

	master, err := keys.NewMasterKey()
	require.NoError(t, err)

	salt, err := keys.NewSalt()
	require.NoError(t, err)

	pkg := keys.NewPackage(master, salt)

	assert.Equal(t, "AES-256-GCM", pkg.Algorithm)
	assert.Equal(t, "PBKDF2-SHA256", pkg.KeyDerivation)
	assert.Equal(t, keys.MasterIterations, pkg.Iterations)
	assert.NotEmpty(t, pkg.CreatedAt)
}

func TestLoadMissingSalt(t *testing.T) {
	t.Parallel()

	record := map[string]any{
		"master_key":     "Zm9v",
		"created_at":     "2024-01-01T00:00:00Z",
		"algorithm":      "AES-256-GCM",
		"key_derivation": "PBKDF2-SHA256",
		"iterations":     100000,
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = keys.Load(path)
	require.ErrorIs(t, err, keys.ErrValidation)
}

func TestLoadMalformedJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := keys.Load(path)
	require.ErrorIs(t, err, keys.ErrValidation)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := keys.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, keys.ErrValidation, "I/O failures are not validation failures")
}

func TestKeysRejectsWrongSize(t *testing.T) {
	t.Parallel()

	pkg := keys.NewPackage([]byte("short"), bytes.Repeat([]byte{1}, keys.SaltSize))

	_, _, err := pkg.Keys()
	require.ErrorIs(t, err, keys.ErrValidation)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "keys")

	material, err := keys.Generate(dir)
	require.NoError(t, err)

	assert.Len(t, material.MasterKey, keys.MasterKeySize)
	assert.Len(t, material.Salt, keys.SaltSize)
	assert.FileExists(t, material.Path)

	loaded, err := keys.Load(material.Path)
	require.NoError(t, err)
	assert.Equal(t, material.Package, loaded)
}
