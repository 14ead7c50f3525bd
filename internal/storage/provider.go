// Package storage defines the vault file-system abstraction.
package storage

// FileMeta is a lightweight description of one vault file.
type FileMeta struct {
	Path     string
	Checksum string
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]FileMeta, error)
	// Read returns the authoritative on-disk bytes of the file at path.
	Read(path string) ([]byte, error)
	// ReadCached returns possibly stale bytes for path. It is the fast
	// path for marker-detection scans; mutations through this provider
	// invalidate the cache.
	ReadCached(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Invalidate drops cached content for path after an external edit.
	Invalidate(path string)
}
