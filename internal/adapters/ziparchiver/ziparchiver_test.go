package ziparchiver

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

func TestCreateStoresEntriesAtRoot(t *testing.T) {
	sourceDir := t.TempDir()
	testFiles := map[string]string{
		"manifest.json":        `{"name":"test"}`,
		"background.js":        "console.log(1)",
		"icons/icon-128.png":   "png",
		"_locales/en/msg.json": "{}",
	}
	writeTree(t, sourceDir, testFiles)

	zipPath := filepath.Join(sourceDir, ".bundle.zip")
	fileCount, err := New().Create(zipPath, sourceDir)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if fileCount != len(testFiles) {
		t.Errorf("fileCount = %d, expected %d", fileCount, len(testFiles))
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	defer r.Close()

	found := make(map[string]bool)
	for _, f := range r.File {
		found[f.Name] = true
	}
	for path := range testFiles {
		if !found[path] {
			t.Errorf("Expected entry %s not found in zip", path)
		}
	}
	if found[".bundle.zip"] {
		t.Error("Archive must not contain itself")
	}
}

func TestCreateSkipsTopLevelDotEntries(t *testing.T) {
	sourceDir := t.TempDir()
	writeTree(t, sourceDir, map[string]string{
		"manifest.json":    "{}",
		".env":             "SECRET=1",
		".cache/file":      "cached",
		"assets/.gitkeep":  "",
		"assets/style.css": "body{}",
	})

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	fileCount, err := New().Create(zipPath, sourceDir)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if fileCount != 3 {
		t.Errorf("fileCount = %d, expected 3", fileCount)
	}

	files, err := New().List(zipPath)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, name := range []string{".env", ".cache/file"} {
		if _, ok := files[name]; ok {
			t.Errorf("Hidden entry %s found in zip", name)
		}
	}
	if _, ok := files["assets/.gitkeep"]; !ok {
		t.Error("Nested dot file should be archived")
	}
}

func TestCreateResolvesSymlinks(t *testing.T) {
	root := t.TempDir()
	sourceDir := filepath.Join(root, "dist")
	writeTree(t, sourceDir, map[string]string{"manifest.json": "{}"})
	writeTree(t, root, map[string]string{"shared/vendor.js": "vendor code", "shared/lib/a.js": "a"})

	if err := os.Symlink(filepath.Join(root, "shared", "vendor.js"), filepath.Join(sourceDir, "vendor.js")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "shared", "lib"), filepath.Join(sourceDir, "lib")); err != nil {
		t.Fatalf("Failed to link dir: %v", err)
	}

	zipPath := filepath.Join(root, "out.zip")
	fileCount, err := New().Create(zipPath, sourceDir)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if fileCount != 2 {
		t.Errorf("fileCount = %d, expected 2", fileCount)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	defer func() { _ = r.Close() }()

	var found bool
	for _, f := range r.File {
		if f.Name != "vendor.js" {
			continue
		}
		found = true
		if !f.Mode().IsRegular() {
			t.Errorf("vendor.js mode = %v, expected a regular file", f.Mode())
		}
		if f.UncompressedSize64 != uint64(len("vendor code")) {
			t.Errorf("vendor.js size = %d, expected %d", f.UncompressedSize64, len("vendor code"))
		}
	}
	if !found {
		t.Error("vendor.js missing from archive")
	}
}

func TestCreateDanglingSymlink(t *testing.T) {
	sourceDir := t.TempDir()
	writeTree(t, sourceDir, map[string]string{"manifest.json": "{}"})
	if err := os.Symlink(filepath.Join(sourceDir, "gone.js"), filepath.Join(sourceDir, "app.js")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	if _, err := New().Create(zipPath, sourceDir); err == nil {
		t.Fatal("Expected error for a dangling symlink")
	}
	if _, err := os.Stat(zipPath); !os.IsNotExist(err) {
		t.Error("partial archive should be removed")
	}
}

func TestCreateMissingSourceDir(t *testing.T) {
	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "out.zip")

	if _, err := New().Create(zipPath, filepath.Join(tempDir, "missing")); err == nil {
		t.Fatal("Expected error for missing source directory")
	}
	if _, err := os.Stat(zipPath); !os.IsNotExist(err) {
		t.Error("No archive should be left behind on failure")
	}
}

func TestCreateSourceIsFile(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := New().Create(filepath.Join(tempDir, "out.zip"), file); err == nil {
		t.Fatal("Expected error when source is not a directory")
	}
}

func TestListReportsSizes(t *testing.T) {
	sourceDir := t.TempDir()
	writeTree(t, sourceDir, map[string]string{"a.txt": "12345"})

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	if _, err := New().Create(zipPath, sourceDir); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	files, err := New().List(zipPath)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	info, ok := files["a.txt"]
	if !ok {
		t.Fatal("a.txt not listed")
	}
	if info.Size != 5 {
		t.Errorf("Size = %d, expected 5", info.Size)
	}
	if info.CRC32 == 0 {
		t.Error("CRC32 should be set")
	}
}

func TestListMissingArchive(t *testing.T) {
	if _, err := New().List(filepath.Join(t.TempDir(), "nope.zip")); err == nil {
		t.Fatal("Expected error for missing archive")
	}
}
