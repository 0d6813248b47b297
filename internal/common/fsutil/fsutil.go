package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// ~/models.json, ~\models.json
	rest := strings.TrimLeft(path[1:], `/\`)
	return filepath.Join(home, rest), nil
}

// PathExists reports whether path exists. A path through a regular file
// (ENOTDIR) or a symlink loop (ELOOP) does not exist. Other stat errors
// (permission denied on a parent, for example) count as existing so the
// caller can still report the entry.
func PathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	return !errors.Is(err, os.ErrNotExist) &&
		!errors.Is(err, syscall.ENOTDIR) &&
		!errors.Is(err, syscall.ELOOP)
}

// FileSize returns the size in bytes of the file at path, following symlinks.
// Unlike a plain stat it rejects directories.
func FileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if fi.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return fi.Size(), nil
}
