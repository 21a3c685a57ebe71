// Package mocks provides mock implementations for testing.
package mocks

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mcdonaldj/extpublish/internal/ports"
)

// MockFileSystem implements ports.FileSystem for testing.
type MockFileSystem struct {
	// Files maps paths to file contents
	Files map[string][]byte
	// Errors maps paths to errors (for simulating failures)
	Errors map[string]error
	// Removed records paths passed to Remove
	Removed []string
}

// NewMockFileSystem creates a new mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:  make(map[string][]byte),
		Errors: make(map[string]error),
	}
}

// Open opens the named file for reading.
func (m *MockFileSystem) Open(name string) (io.ReadCloser, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	content, ok := m.Files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// Stat returns file info for the named file.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if content, ok := m.Files[name]; ok {
		return &mockFileInfo{name: filepath.Base(name), size: int64(len(content))}, nil
	}
	return nil, os.ErrNotExist
}

// Remove removes the named file.
func (m *MockFileSystem) Remove(name string) error {
	m.Removed = append(m.Removed, name)
	if err, ok := m.Errors[name]; ok {
		return err
	}
	if _, ok := m.Files[name]; !ok {
		return os.ErrNotExist
	}
	delete(m.Files, name)
	return nil
}

// Exists reports whether the named file is present.
func (m *MockFileSystem) Exists(name string) bool {
	_, ok := m.Files[name]
	return ok
}

// mockFileInfo implements os.FileInfo for testing.
type mockFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// Compile-time check that MockFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*MockFileSystem)(nil)
