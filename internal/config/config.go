// Package config holds the runtime configuration shared by all phpseal
// commands, populated from flags and PHPSEAL_* environment variables.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Suffixes maps between original and protected file names.
// Encrypting strips Source from the name and appends Encrypt; decrypting
// reverses the mapping.
type Suffixes struct {
	Source  string `mapstructure:"source-ext"`
	Encrypt string `mapstructure:"encrypt-ext"`
}

// Obfuscation selects the identifier categories renamed before encryption.
type Obfuscation struct {
	Variables bool `mapstructure:"obfuscate-vars"`
	Functions bool `mapstructure:"obfuscate-functions"`
	Classes   bool `mapstructure:"obfuscate-classes"`
}

// Config is the full runtime configuration.
type Config struct {
	// Key package handling. KeyFile loads an existing package; KeysDir is
	// where freshly generated packages are written.
	KeyFile string `mapstructure:"keys"`
	KeysDir string `mapstructure:"keys-dir"`

	// Batch behavior.
	Parallel int  `mapstructure:"parallel" validate:"min=1"`
	Quiet    bool `mapstructure:"quiet"`
	Stats    bool `mapstructure:"stats"`
	Delete   bool `mapstructure:"delete"`
	Dry      bool `mapstructure:"dry"`

	// File selection.
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`
	IncludeFrom string   `mapstructure:"include-from"`
	ExcludeFrom string   `mapstructure:"exclude-from"`

	Suffixes    Suffixes    `mapstructure:",squash"`
	Obfuscation Obfuscation `mapstructure:",squash"`

	// ChunkSize is the plaintext segment size for encryption. Zero means
	// the built-in default; decryption ignores it.
	ChunkSize int `mapstructure:"chunk-size" validate:"omitempty,min=1"`

	// Decrypt switches the pipeline direction.
	Decrypt bool

	// Files are the resolved positional arguments.
	Files []string `validate:"min=1"`
}

// Validate checks the configuration against its struct tags plus the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	if c.Decrypt && c.KeyFile == "" {
		return fmt.Errorf("decrypt requires --keys pointing at the batch key package")
	}

	if c.Suffixes.Encrypt == "" {
		return fmt.Errorf("encrypt-ext must not be empty")
	}

	return nil
}
