// Package enum discovers the files a scan should visit.
package enum

import (
	"context"
	"io/fs"
)

// Enumerator discovers files to scan from a source.
type Enumerator interface {
	// Enumerate yields file paths in a deterministic order.
	Enumerate(ctx context.Context, callback func(path string, info fs.FileInfo) error) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration. A file root yields itself.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks includes symbolic links to files.
	FollowSymlinks bool
}

// Paths enumerates every root with the shared settings of cfg and returns
// the collected paths in root order.
func Paths(ctx context.Context, roots []string, cfg Config) ([]string, error) {
	var paths []string
	for _, root := range roots {
		c := cfg
		c.Root = root
		err := NewFilesystemEnumerator(c).Enumerate(ctx, func(path string, _ fs.FileInfo) error {
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}
