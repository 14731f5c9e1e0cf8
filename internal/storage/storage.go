package storage

import (
	"io"
	"time"
)

// StoredFile describes a file persisted by the store.
type StoredFile struct {
	Name    string // stored (collision-resistant) name
	Path    string // absolute or store-relative path usable for later operations
	Size    int64
	ModTime time.Time
}

// FileStore abstracts the document file backend. The document lifecycle
// service is the only component that touches it.
type FileStore interface {
	// Save writes the content under a collision-resistant name derived from
	// originalName and returns the stored file's details.
	Save(originalName string, r io.Reader, maxSize int64) (StoredFile, error)

	// Open returns a reader for a previously stored file.
	Open(path string) (io.ReadCloser, error)

	// Remove deletes a stored file. A missing file is not an error: the
	// purge path must stay idempotent.
	Remove(path string) error

	// List enumerates every stored file. Used by the background sweep to
	// find files whose document row is gone.
	List() ([]StoredFile, error)
}
