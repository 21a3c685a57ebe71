package ports

// Archiver abstracts zip archive operations for testability.
// Production code uses ZipArchiver adapter; tests use MockArchiver.
type Archiver interface {
	// Create creates a zip archive of the contents of sourceDir at destPath.
	// Entry names are relative to sourceDir.
	// Returns the number of files archived.
	Create(destPath, sourceDir string) (fileCount int, err error)

	// List returns a map of entry names to their info from the archive.
	List(zipPath string) (map[string]FileInfo, error)
}

// FileInfo contains metadata about a file in an archive.
type FileInfo struct {
	Size  int64
	CRC32 uint32
}
