package keys

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// Algorithm identifies the content cipher recorded in key packages.
	Algorithm = "AES-256-GCM"

	// KeyDerivation identifies the KDF recorded in key packages.
	KeyDerivation = "PBKDF2-SHA256"
)

// ErrValidation indicates a key package is missing required fields.
// A batch cannot proceed without a valid master key and salt, so callers
// treat this as fatal for the whole run.
var ErrValidation = errors.New("invalid key package")

// Package is the persisted key record for one encryption batch.
// Secrets are base64-encoded; the remaining fields are metadata.
type Package struct {
	MasterKey     string `json:"master_key"`
	Salt          string `json:"salt"`
	CreatedAt     string `json:"created_at"`
	Algorithm     string `json:"algorithm"`
	KeyDerivation string `json:"key_derivation"`
	Iterations    int    `json:"iterations"`
}

// NewPackage builds a key package record from raw key material.
func NewPackage(masterKey, salt []byte) Package {
	return Package{
		MasterKey:     base64.StdEncoding.EncodeToString(masterKey),
		Salt:          base64.StdEncoding.EncodeToString(salt),
		CreatedAt:     time.Now().Format(time.RFC3339),
		Algorithm:     Algorithm,
		KeyDerivation: KeyDerivation,
		Iterations:    MasterIterations,
	}
}

// Keys decodes the master key and salt from the package.
func (p Package) Keys() (masterKey, salt []byte, err error) {
	masterKey, err = base64.StdEncoding.DecodeString(p.MasterKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decoding master key: %w", ErrValidation, err)
	}

	if len(masterKey) != MasterKeySize {
		return nil, nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrValidation, MasterKeySize, len(masterKey))
	}

	salt, err = base64.StdEncoding.DecodeString(p.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decoding salt: %w", ErrValidation, err)
	}

	return masterKey, salt, nil
}

// validate checks that the required fields are present.
func (p Package) validate() error {
	switch {
	case p.MasterKey == "":
		return fmt.Errorf("%w: missing master_key", ErrValidation)
	case p.Salt == "":
		return fmt.Errorf("%w: missing salt", ErrValidation)
	case p.Algorithm == "":
		return fmt.Errorf("%w: missing algorithm", ErrValidation)
	case p.KeyDerivation == "":
		return fmt.Errorf("%w: missing key_derivation", ErrValidation)
	default:
		return nil
	}
}

// Save writes the package as JSON into dir, creating the directory if
// needed. The file name carries a timestamp so repeated batches never
// overwrite an earlier package. Returns the written path.
func Save(pkg Package, dir string) (string, error) {
	const dirPerm = 0o750

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("creating key directory %q: %w", dir, err)
	}

	name := fmt.Sprintf("phpseal_keys_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding key package: %w", err)
	}

	const ownerReadWrite = 0o600

	if err := os.WriteFile(path, data, ownerReadWrite); err != nil {
		return "", fmt.Errorf("writing key package: %w", err)
	}

	return path, nil
}

// Load reads and validates a key package from path.
func Load(path string) (Package, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Package{}, fmt.Errorf("reading key package %q: %w", path, err)
	}

	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Package{}, fmt.Errorf("%w: parsing %q: %w", ErrValidation, path, err)
	}

	if err := pkg.validate(); err != nil {
		return Package{}, err
	}

	return pkg, nil
}

// Material bundles freshly generated key material with its persisted form.
type Material struct {
	MasterKey []byte
	Salt      []byte
	Path      string
	Package   Package
}

// Generate creates a fresh master key and salt, persists the package into
// dir, and returns the complete material for the batch.
func Generate(dir string) (*Material, error) {
	masterKey, err := NewMasterKey()
	if err != nil {
		return nil, err
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}

	pkg := NewPackage(masterKey, salt)

	path, err := Save(pkg, dir)
	if err != nil {
		return nil, err
	}

	return &Material{
		MasterKey: masterKey,
		Salt:      salt,
		Path:      path,
		Package:   pkg,
	}, nil
}
