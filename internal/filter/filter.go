// Package filter selects the PHP files a batch operates on, combining
// extension-based discovery with include/exclude patterns using
// find -path semantics.
package filter

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/east-technologies/phpseal/pkg/pathmatch"
)

// Extensions are the source file extensions discovered when walking
// directories without explicit include patterns.
var Extensions = map[string]struct{}{
	".php": {}, ".phtml": {}, ".php3": {}, ".php4": {},
	".php5": {}, ".php7": {}, ".php8": {},
}

// HasSourceExtension reports whether path carries a recognized PHP
// source extension.
func HasSourceExtension(path string) bool {
	_, ok := Extensions[strings.ToLower(filepath.Ext(path))]

	return ok
}

// Filter applies include/exclude patterns. Empty includes means "match
// all". Excludes always win.
type Filter struct {
	includes *pathmatch.Matcher
	excludes *pathmatch.Matcher

	hasIncludes bool
}

// New compiles include/exclude patterns into a reusable filter.
// hasIncludes records whether include filtering was requested at all,
// which matters when the pattern list itself is empty.
func New(includes, excludes []string, hasIncludes bool) (*Filter, error) {
	inc, err := pathmatch.NewMatcher(normalize(includes))
	if err != nil {
		return nil, fmt.Errorf("compiling include patterns: %w", err)
	}

	exc, err := pathmatch.NewMatcher(normalize(excludes))
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}

	return &Filter{includes: inc, excludes: exc, hasIncludes: hasIncludes}, nil
}

// Match reports whether the cleaned slash-separated path is selected.
func (f *Filter) Match(path string) bool {
	included := !f.hasIncludes || f.includes.MatchAny(path)

	return included && !f.excludes.MatchAny(path)
}

// normalize strips leading "./" so patterns match cleaned paths.
func normalize(patterns []string) []string {
	out := make([]string, len(patterns))

	for i, p := range patterns {
		out[i] = strings.TrimPrefix(p, "./")
	}

	return out
}

// Resolve expands positional args into the file list a batch will
// process. Explicit files are taken as-is; directories are walked, kept
// to recognized PHP extensions, and filtered. Returns the selected files
// and the total number of candidates scanned.
func Resolve(args, includes, excludes []string, hasIncludes bool) (files []string, scanned int, err error) {
	flt, err := New(includes, excludes, hasIncludes)
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]struct{})

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}

		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		arg = filepath.Clean(arg)

		info, err := os.Stat(arg)
		if err != nil {
			return nil, 0, fmt.Errorf("stat %q: %w", arg, err)
		}

		if !info.IsDir() {
			// Explicit file: bypass filtering.
			scanned++

			add(arg)

			continue
		}

		walked, total, err := walkDir(arg, flt)
		if err != nil {
			return nil, 0, err
		}

		scanned += total

		for _, path := range walked {
			add(path)
		}
	}

	if len(files) == 0 {
		return nil, scanned, fmt.Errorf("no files matched the provided patterns: %v", args)
	}

	return files, scanned, nil
}

// walkDir walks root recursively, keeping PHP files that pass the filter.
func walkDir(root string, flt *Filter) (files []string, total int, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if !HasSourceExtension(path) {
			return nil
		}

		total++

		// Use forward slashes for pattern matching consistency.
		clean := filepath.ToSlash(filepath.Clean(path))

		if !flt.Match(clean) {
			return nil
		}

		files = append(files, path)

		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("walking %q: %w", root, err)
	}

	return files, total, nil
}
