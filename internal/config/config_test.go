package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/east-technologies/phpseal/internal/config"
)

func valid() *config.Config {
	return &config.Config{
		Parallel:  4,
		ChunkSize: 8192,
		Files:     []string{"a.php"},
		Suffixes: config.Suffixes{
			Source:  ".php",
			Encrypt: ".encrypted.php",
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, valid().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero parallel", func(c *config.Config) { c.Parallel = 0 }},
		{"negative parallel", func(c *config.Config) { c.Parallel = -1 }},
		{"negative chunk size", func(c *config.Config) { c.ChunkSize = -1 }},
		{"no files", func(c *config.Config) { c.Files = nil }},
		{"empty encrypt suffix", func(c *config.Config) { c.Suffixes.Encrypt = "" }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tc.mutate(cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateDecryptNeedsKeys(t *testing.T) {
	t.Parallel()

	cfg := valid()
	cfg.Decrypt = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--keys")

	cfg.KeyFile = "phpseal_keys_20240101_000000.json"
	require.NoError(t, cfg.Validate())
}
