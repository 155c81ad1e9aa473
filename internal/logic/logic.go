// Package logic wires file selection, key material, and the batch
// processor together for the phpseal commands.
package logic

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/east-technologies/phpseal/internal/config"
	"github.com/east-technologies/phpseal/internal/encryption"
	"github.com/east-technologies/phpseal/internal/filter"
	"github.com/east-technologies/phpseal/internal/keys"
)

// Run executes an encryption or decryption batch.
func Run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	scanned, err := resolveFiles(cfg)
	if err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	excluded := scanned - len(cfg.Files)

	if cfg.Dry {
		return dryRun(cfg, scanned, excluded, start)
	}

	masterKey, salt, err := batchKeys(cfg)
	if err != nil {
		// A batch without valid key material cannot derive any per-file
		// key; this is fatal for the whole run.
		return err
	}

	proc := encryption.NewProcessor(cfg, masterKey, salt)

	processed, errored, totalSize, err := proc.ProcessFiles(ctx)

	if cfg.Stats {
		printStats(scanned, excluded, processed, errored, totalSize, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("running batch: %w", err)
	}

	return nil
}

// batchKeys loads or generates the key material for one batch.
// Decryption always loads; encryption loads when --keys is given and
// otherwise generates a fresh package into the keys directory.
func batchKeys(cfg *config.Config) (masterKey, salt []byte, err error) {
	if cfg.KeyFile != "" {
		pkg, err := keys.Load(cfg.KeyFile)
		if err != nil {
			return nil, nil, err
		}

		return pkg.Keys()
	}

	material, err := keys.Generate(cfg.KeysDir)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Quiet {
		fmt.Printf("Key package written to %q (required for decryption, keep it safe)\n", material.Path)
	}

	return material.MasterKey, material.Salt, nil
}

// resolveFiles expands positional args into cfg.Files, applying
// include/exclude patterns. Decryption defaults to selecting artifacts by
// their suffix when no include pattern was given.
func resolveFiles(cfg *config.Config) (scanned int, err error) {
	includes := append([]string{}, cfg.Include...)
	excludes := append([]string{}, cfg.Exclude...)

	if cfg.IncludeFrom != "" {
		patterns, err := filter.LoadPatterns(cfg.IncludeFrom)
		if err != nil {
			return 0, fmt.Errorf("loading include patterns: %w", err)
		}

		includes = append(includes, patterns...)
	}

	if cfg.ExcludeFrom != "" {
		patterns, err := filter.LoadPatterns(cfg.ExcludeFrom)
		if err != nil {
			return 0, fmt.Errorf("loading exclude patterns: %w", err)
		}

		excludes = append(excludes, patterns...)
	}

	hasIncludes := len(includes) > 0

	if cfg.Decrypt && !hasIncludes {
		includes = append(includes, "*"+cfg.Suffixes.Encrypt)
		hasIncludes = true
	}

	files, scanned, err := filter.Resolve(cfg.Files, includes, excludes, hasIncludes)
	if err != nil {
		return scanned, err
	}

	cfg.Files = files

	return scanned, nil
}

// dryRun previews the batch without touching any file.
func dryRun(cfg *config.Config, scanned, excluded int, start time.Time) error {
	var totalSize int64

	for _, file := range cfg.Files {
		if !cfg.Quiet {
			fmt.Printf("Would process %q\n", file)
		}

		if info, err := os.Stat(file); err == nil {
			totalSize += info.Size()
		}
	}

	if cfg.Stats {
		printStats(scanned, excluded, len(cfg.Files), 0, totalSize, time.Since(start))
	}

	return nil
}

func printStats(scanned, excluded, processed, errored int, totalSize int64, duration time.Duration) {
	fmt.Fprintf(os.Stderr, "\nStats\n")
	fmt.Fprintf(os.Stderr, "  Scanned:   %d\n", scanned)
	fmt.Fprintf(os.Stderr, "  Excluded:  %d\n", excluded)
	fmt.Fprintf(os.Stderr, "  Processed: %d\n", processed)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", errored)
	fmt.Fprintf(os.Stderr, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(os.Stderr, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
