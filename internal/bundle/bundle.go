// Package bundle describes the archive artifact produced for one publish cycle.
package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"github.com/mcdonaldj/extpublish/internal/ports"
)

// Name is the file name of the archive written into the bundled directory.
const Name = ".bundle.zip"

// PathIn returns the absolute archive path for dir.
func PathIn(dir string) (string, error) {
	return filepath.Abs(filepath.Join(dir, Name))
}

// Info describes a produced archive.
type Info struct {
	Path      string
	SizeBytes int64
	SHA256    string
	FileCount int
}

// Describe stats and hashes the archive at path.
func Describe(fsys ports.FileSystem, path string, fileCount int) (Info, error) {
	stat, err := fsys.Stat(path)
	if err != nil {
		return Info{}, err
	}

	checksum, err := ComputeSHA256(fsys, path)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Path:      path,
		SizeBytes: stat.Size(),
		SHA256:    checksum,
		FileCount: fileCount,
	}, nil
}

// ComputeSHA256 calculates SHA256 hash of a file
func ComputeSHA256(fsys ports.FileSystem, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// FormatSize formats bytes as human-readable
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
