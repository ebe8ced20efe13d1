package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates the per-owner upload directory tree if it is missing.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeJoin joins an untrusted upload filename onto root, discarding any path
// components the client may have sent.
func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(name))
}
