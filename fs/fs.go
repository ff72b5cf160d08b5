// Package fs resolves and opens local files for upload.
package fs

import (
	"context"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/tutor"
)

// MaxUploadSize is the largest file Upload will send.
const MaxUploadSize = 32 << 20

// Expand resolves pattern to the regular files it matches, sorted. Relative
// patterns are resolved against dir. Patterns support ** for recursive
// matching. A pattern that matches nothing is a validation error.
func Expand(dir, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("fs: pattern is required: %w", tutor.ErrValidation)
	}
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(dir, pattern)
	}
	base, rel := doublestar.SplitPattern(filepath.ToSlash(pattern))
	if !doublestar.ValidatePattern(rel) {
		return nil, fmt.Errorf("fs: invalid glob pattern %q: %w", pattern, tutor.ErrValidation)
	}
	base = filepath.FromSlash(base)

	info, err := os.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("fs: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fs: %s is not a directory: %w", base, tutor.ErrValidation)
	}

	var matches []string
	err = doublestar.GlobWalk(os.DirFS(base), rel, func(path string, d iofs.DirEntry) error {
		if !d.Type().IsRegular() {
			return nil
		}
		matches = append(matches, filepath.Join(base, filepath.FromSlash(path)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fs: match %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("fs: no files match %q: %w", pattern, tutor.ErrValidation)
	}
	sort.Strings(matches)
	return matches, nil
}

// Upload opens path and sends it to b. Files larger than MaxUploadSize are
// rejected without being read.
func Upload(ctx context.Context, b tutor.Backend, path string) (tutor.UploadedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return tutor.UploadedDocument{}, fmt.Errorf("fs: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return tutor.UploadedDocument{}, fmt.Errorf("fs: %w", err)
	}
	if info.Size() > MaxUploadSize {
		return tutor.UploadedDocument{}, fmt.Errorf("fs: %s is %d bytes, limit is %d: %w",
			filepath.Base(path), info.Size(), MaxUploadSize, tutor.ErrValidation)
	}

	doc, err := b.Upload(ctx, path, f)
	if err != nil {
		return tutor.UploadedDocument{}, err
	}
	if doc.Size == 0 {
		doc.Size = info.Size()
	}
	return doc, nil
}
