package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/EmerzonBasa/crld/internal/models"
)

// LocalStore persists files under a single configured directory. Names are
// timestamp-prefixed so concurrent uploads and purges never share a path.
type LocalStore struct {
	root string
	now  func() time.Time
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{root: root, now: time.Now}, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeName strips any path components and unsafe characters from a
// client-supplied filename.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "document.pdf"
	}
	return name
}

// Save writes the content under "<YYYYMMDD_HHMMSS>_<sanitized>" inside the
// root. Content larger than maxSize is rejected and the partial file removed.
func (s *LocalStore) Save(originalName string, r io.Reader, maxSize int64) (StoredFile, error) {
	base := fmt.Sprintf("%s_%s", s.now().Format("20060102_150405"), sanitizeName(originalName))

	name := base
	var f *os.File
	var err error
	for attempt := 0; ; attempt++ {
		f, err = os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !os.IsExist(err) || attempt >= 100 {
			return StoredFile{}, fmt.Errorf("%w: create %s: %v", models.ErrStorage, name, err)
		}
		// Same second, same original name: disambiguate.
		name = fmt.Sprintf("%d_%s", attempt+1, base)
	}

	path := filepath.Join(s.root, name)

	written, err := io.Copy(f, io.LimitReader(r, maxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return StoredFile{}, fmt.Errorf("%w: write %s: %v", models.ErrStorage, name, err)
	}
	if written > maxSize {
		_ = os.Remove(path)
		return StoredFile{}, models.ErrFileTooLarge
	}

	return StoredFile{Name: name, Path: path, Size: written}, nil
}

// Open returns a reader for a stored file.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("%w: open %s: %v", models.ErrStorage, path, err)
	}
	return f, nil
}

// Remove deletes a stored file; a missing file is treated as success.
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove %s: %v", models.ErrStorage, path, err)
	}
	return nil
}

// List returns every regular file in the store root.
func (s *LocalStore) List() ([]StoredFile, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", models.ErrStorage, s.root, err)
	}

	files := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFile{
			Name:    entry.Name(),
			Path:    filepath.Join(s.root, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}
