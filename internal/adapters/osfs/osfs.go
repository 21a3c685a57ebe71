// Package osfs provides a filesystem adapter using the standard library os package.
package osfs

import (
	"io"
	"os"

	"github.com/mcdonaldj/extpublish/internal/ports"
)

// OSFileSystem implements ports.FileSystem using the standard library.
type OSFileSystem struct{}

// New creates a new OSFileSystem adapter.
func New() *OSFileSystem {
	return &OSFileSystem{}
}

// Open opens the named file for reading.
func (f *OSFileSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// Stat returns file info for the named file.
func (f *OSFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// Remove removes the named file.
func (f *OSFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// Compile-time check that OSFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*OSFileSystem)(nil)
