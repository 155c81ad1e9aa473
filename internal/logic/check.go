package logic

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/east-technologies/phpseal/internal/artifact"
	"github.com/east-technologies/phpseal/internal/config"
)

// RunCheck structurally validates artifacts without decrypting them:
// type marker, the four required fields, and a decodable chunk list.
func RunCheck(cfg *config.Config) error {
	if _, err := resolveFiles(cfg); err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	var invalid int

	for _, file := range cfg.Files {
		data, err := os.ReadFile(filepath.Clean(file))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: read error: %v\n", file, err)

			invalid++

			continue
		}

		if !artifact.Valid(data) {
			fmt.Fprintf(os.Stderr, "%s: not a phpseal artifact\n", file)

			invalid++

			continue
		}

		parsed, err := artifact.Parse(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)

			invalid++

			continue
		}

		if !cfg.Quiet {
			fmt.Printf("%s: valid artifact, %d chunks\n", file, len(parsed.Chunks))
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d file(s) failed validation", invalid)
	}

	return nil
}
