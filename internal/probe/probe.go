// Package probe checks model files on disk and renders their sizes.
package probe

import (
	"fmt"

	"modelsetup/internal/common/fsutil"
)

// Unknown is reported as the size when the file exists but cannot be stat'ed.
const Unknown = "Unknown"

const (
	mib = 1024 * 1024
	gib = 1024 // in MiB
)

// Result describes a probed model file.
type Result struct {
	Exists bool
	Size   string
}

// Probe reports whether path exists and, if so, its formatted size.
func Probe(path string) Result {
	if !fsutil.PathExists(path) {
		return Result{}
	}
	n, err := fsutil.FileSize(path)
	if err != nil {
		return Result{Exists: true, Size: Unknown}
	}
	return Result{Exists: true, Size: FormatSize(n)}
}

// FormatSize renders n bytes as MiB with one decimal, switching to GiB at
// 1024 MiB. Labels are "MB" and "GB".
func FormatSize(n int64) string {
	m := float64(n) / mib
	if m < gib {
		return fmt.Sprintf("%.1f MB", m)
	}
	return fmt.Sprintf("%.1f GB", m/gib)
}
