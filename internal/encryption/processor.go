package encryption

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/east-technologies/phpseal/internal/artifact"
	"github.com/east-technologies/phpseal/internal/config"
	"github.com/east-technologies/phpseal/internal/fileutil"
	"github.com/east-technologies/phpseal/internal/obfuscate"
)

// Result is the outcome of processing a single file. Failures are
// per-file: the batch carries on with the remaining files.
type Result struct {
	// Input file path
	Input string

	// Output file path
	Output string

	// Output file size in bytes
	OutputSize int64

	// Chunks written (encrypt) or read (decrypt)
	Chunks int

	// Renamed identifiers across all namespaces (encrypt only)
	Renamed int

	// Any error that occurred during processing
	Error error
}

// Processor runs the encryption or decryption pipeline over a batch of
// files with bounded parallelism.
type Processor struct {
	cfg *config.Config

	masterKey []byte
	salt      []byte

	results chan Result
}

// NewProcessor creates a Processor for one batch, holding the batch key
// material for its lifetime.
func NewProcessor(cfg *config.Config, masterKey, salt []byte) *Processor {
	return &Processor{
		cfg:       cfg,
		masterKey: masterKey,
		salt:      salt,
		results:   make(chan Result, len(cfg.Files)),
	}
}

// ProcessFiles runs the batch. Cancellation is cooperative and checked
// between files: a file that already started always completes or fails
// atomically. Returns counts of processed and errored files plus the total
// output size.
func (p *Processor) ProcessFiles(ctx context.Context) (processed, errored int, totalSize int64, err error) {
	group := errgroup.Group{}
	group.SetLimit(p.cfg.Parallel)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for result := range p.results {
			if result.Error != nil {
				errored++

				fmt.Fprintf(os.Stderr, "Error processing %q: %v\n", result.Input, result.Error)

				continue
			}

			processed++

			totalSize += result.OutputSize

			if !p.cfg.Quiet {
				if result.Renamed > 0 {
					fmt.Printf("Processed %q -> %q (%d chunks, %d identifiers renamed)\n",
						result.Input, result.Output, result.Chunks, result.Renamed)
				} else {
					fmt.Printf("Processed %q -> %q (%d chunks)\n", result.Input, result.Output, result.Chunks)
				}
			}

			if p.cfg.Delete {
				if err := os.Remove(result.Input); err != nil {
					fmt.Fprintf(os.Stderr, "Error deleting %q: %v\n", result.Input, err)
				} else if !p.cfg.Quiet {
					fmt.Printf("Deleted %q\n", result.Input)
				}
			}
		}
	}()

	for _, file := range p.cfg.Files {
		file := file
		group.Go(func() error {
			// Stop point between files; in-flight files are never cut short.
			if err := ctx.Err(); err != nil {
				return err
			}

			outPath := p.outputPath(file)

			size, chunks, renamed, err := p.processFile(file, outPath)
			if err != nil {
				p.results <- Result{Input: file, Error: err}

				return err
			}

			p.results <- Result{Input: file, Output: outPath, OutputSize: size, Chunks: chunks, Renamed: renamed}

			return nil
		})
	}

	err = group.Wait()

	close(p.results)

	<-done // Wait for printer to finish

	if err != nil {
		return processed, errored, totalSize, fmt.Errorf("processing files: %w", err)
	}

	return processed, errored, totalSize, nil
}

// processFile encrypts or decrypts one file with an atomic write.
func (p *Processor) processFile(filename, outPath string) (size int64, chunks, renamed int, err error) {
	input, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("reading input file: %w", err)
	}

	var output []byte

	if p.cfg.Decrypt {
		output, chunks, err = p.decryptFile(input, outPath)
	} else {
		output, chunks, renamed, err = p.encryptFile(input, outPath)
	}

	if err != nil {
		return 0, 0, 0, err
	}

	aw, err := fileutil.NewAtomicWrite(filename, outPath)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer aw.CleanupOnError(&err)

	if _, err = aw.TmpFile.Write(output); err != nil {
		return 0, 0, 0, fmt.Errorf("writing output: %w", err)
	}

	size, err = aw.Commit()
	if err != nil {
		return 0, 0, 0, err
	}

	return size, chunks, renamed, nil
}

// encryptFile runs the source through the optional obfuscation pass and
// the chunked AEAD pipeline. The file identifier bound into the key is the
// original base name, which decrypt recovers from its own output path.
func (p *Processor) encryptFile(input []byte, outPath string) ([]byte, int, int, error) {
	source := string(input)

	var renamed int

	opts := obfuscate.Options{
		Variables: p.cfg.Obfuscation.Variables,
		Functions: p.cfg.Obfuscation.Functions,
		Classes:   p.cfg.Obfuscation.Classes,
	}

	if opts.Variables || opts.Functions || opts.Classes {
		// One obfuscator per file: aliases are intentionally not shared
		// across files within a batch.
		ob := obfuscate.New()

		rewritten, err := ob.Apply(source, opts)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("obfuscating source: %w", err)
		}

		variables, functions, classes := ob.Counts()
		renamed = variables + functions + classes

		source = rewritten
	}

	fileID := p.originalName(outPath)

	art, err := Encrypt([]byte(source), fileID, p.masterKey, p.salt, p.cfg.ChunkSize)
	if err != nil {
		return nil, 0, 0, err
	}

	rendered, err := art.Render()
	if err != nil {
		return nil, 0, 0, err
	}

	return rendered, len(art.Chunks), renamed, nil
}

// decryptFile restores the plaintext from an artifact, deriving the file
// key from the output base name (the name the file had at encryption
// time).
func (p *Processor) decryptFile(input []byte, outPath string) ([]byte, int, error) {
	if !artifact.Valid(input) {
		return nil, 0, fmt.Errorf("%w: missing artifact markers", artifact.ErrFormat)
	}

	parsed, err := artifact.Parse(input)
	if err != nil {
		return nil, 0, err
	}

	plaintext, err := DecryptArtifact(parsed, filepath.Base(outPath), p.masterKey)
	if err != nil {
		return nil, 0, err
	}

	return plaintext, len(parsed.Chunks), nil
}

// outputPath maps between original and protected names:
// x.php -> x.encrypted.php when encrypting, and back when decrypting.
func (p *Processor) outputPath(filename string) string {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	if p.cfg.Decrypt {
		base = strings.TrimSuffix(base, p.cfg.Suffixes.Encrypt) + p.cfg.Suffixes.Source
	} else {
		base = strings.TrimSuffix(base, p.cfg.Suffixes.Source) + p.cfg.Suffixes.Encrypt
	}

	return filepath.Join(dir, base)
}

// originalName returns the file identifier bound into the per-file key:
// the base name the file will restore to.
func (p *Processor) originalName(outPath string) string {
	base := filepath.Base(outPath)

	return strings.TrimSuffix(base, p.cfg.Suffixes.Encrypt) + p.cfg.Suffixes.Source
}
