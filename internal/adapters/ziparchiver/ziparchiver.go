// Package ziparchiver provides an archiver adapter using the archive/zip package.
package ziparchiver

import (
	"archive/zip"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcdonaldj/extpublish/internal/ports"
)

// ZipArchiver implements ports.Archiver using archive/zip.
type ZipArchiver struct{}

// New creates a new ZipArchiver adapter.
func New() *ZipArchiver {
	return &ZipArchiver{}
}

// isHidden reports whether a top-level entry of sourceDir is skipped.
// Only the first path component is checked, so dot-directories nested
// deeper (e.g. "_locales/.keep") are still archived.
func isHidden(relPath string) bool {
	first := strings.SplitN(filepath.ToSlash(relPath), "/", 2)[0]
	return strings.HasPrefix(first, ".")
}

// Create creates a zip archive of the contents of sourceDir at destPath.
// Entries are stored relative to sourceDir, so the directory's files sit at
// the archive root. Top-level dot-entries are skipped, which also keeps the
// archive from including itself when destPath is inside sourceDir.
// Symlinked files are stored as regular files holding the target's content.
// Returns the number of files archived.
func (a *ZipArchiver) Create(destPath, sourceDir string) (int, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", sourceDir)
	}

	zipFile, err := os.Create(destPath)
	if err != nil {
		return 0, err
	}

	absDest, _ := filepath.Abs(destPath)
	w := zip.NewWriter(zipFile)
	fileCount := 0

	walkErr := filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		if isHidden(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if abs, _ := filepath.Abs(path); abs == absDest {
			return nil
		}

		// Walk reports links via Lstat. Archive what a link points to so the
		// entry header and its bytes agree; linked directories are not followed.
		if info.Mode()&os.ModeSymlink != 0 {
			resolved, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", relPath, err)
			}
			info = resolved
		}

		if info.IsDir() {
			return nil // Directories are created implicitly
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)
		header.Method = zip.Deflate

		writer, err := w.CreateHeader(header)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}

		_, copyErr := io.Copy(writer, file)
		_ = file.Close() // Explicitly ignore close error - data already copied

		if copyErr != nil {
			return fmt.Errorf("copying %s: %w", relPath, copyErr)
		}

		fileCount++
		return nil
	})

	// Close zip writer first to flush data
	if closeErr := w.Close(); closeErr != nil {
		_ = zipFile.Close() // Best effort cleanup on error path
		_ = os.Remove(destPath)
		return 0, fmt.Errorf("closing zip writer: %w", closeErr)
	}

	if closeErr := zipFile.Close(); closeErr != nil {
		_ = os.Remove(destPath)
		return 0, fmt.Errorf("closing zip file: %w", closeErr)
	}

	if walkErr != nil {
		_ = os.Remove(destPath)
		return 0, walkErr
	}

	return fileCount, nil
}

// List returns a map of entry names to their info from the archive.
func (a *ZipArchiver) List(zipPath string) (map[string]ports.FileInfo, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	files := make(map[string]ports.FileInfo)
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		// Safe conversion: check for overflow before uint64 -> int64
		size := int64(0)
		if f.UncompressedSize64 <= math.MaxInt64 {
			size = int64(f.UncompressedSize64)
		}
		files[f.Name] = ports.FileInfo{
			Size:  size,
			CRC32: f.CRC32,
		}
	}

	return files, nil
}

// Compile-time check that ZipArchiver implements ports.Archiver.
var _ ports.Archiver = (*ZipArchiver)(nil)
