// Package fileutil provides atomic file-write helpers.
//
// Every output is written to a temp file in the destination directory and
// renamed into place, so a failed run never leaves a half-written artifact
// that could pass for a valid one.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWrite holds state for one atomic file write.
type AtomicWrite struct {
	SrcInfo os.FileInfo
	TmpFile *os.File
	TmpName string

	outPath string
}

// NewAtomicWrite stats the source file and creates a temp file next to the
// destination. Caller must defer CleanupOnError.
func NewAtomicWrite(src, outPath string) (*AtomicWrite, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("getting file info for %q: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(outPath), ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}

	return &AtomicWrite{
		SrcInfo: info,
		TmpFile: tmpFile,
		TmpName: tmpFile.Name(),
		outPath: outPath,
	}, nil
}

// CleanupOnError closes the temp file and removes it if the write failed.
func (aw *AtomicWrite) CleanupOnError(errp *error) {
	aw.TmpFile.Close()

	if *errp != nil {
		os.Remove(aw.TmpName)
	}
}

// Commit closes the temp file, fixes its permissions, and renames it over
// the destination. Returns the final output size.
func (aw *AtomicWrite) Commit() (int64, error) {
	const ownerReadWrite = 0o600

	if err := os.Chmod(aw.TmpName, ownerReadWrite); err != nil {
		return 0, fmt.Errorf("setting file permissions: %w", err)
	}

	if err := aw.TmpFile.Close(); err != nil {
		return 0, fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(aw.TmpName, aw.outPath); err != nil {
		return 0, fmt.Errorf("renaming output file: %w", err)
	}

	// Carry the source timestamps over so incremental tooling sees the
	// output as no newer than its input.
	modTime := aw.SrcInfo.ModTime()
	if err := os.Chtimes(aw.outPath, modTime, modTime); err != nil {
		return 0, fmt.Errorf("setting output timestamps: %w", err)
	}

	info, err := os.Stat(aw.outPath)
	if err != nil {
		return 0, fmt.Errorf("stat output %q: %w", aw.outPath, err)
	}

	return info.Size(), nil
}
