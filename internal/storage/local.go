package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// Local stores uploaded objects (client documents, the office avatar, backup
// archives) under a data directory on disk. The record model only keeps the
// object key; raw bytes never enter the database.
type Local struct {
	root string
}

// NewLocal uses DATA_DIR, defaulting to ./data.
func NewLocal() *Local {
	root := os.Getenv("DATA_DIR")
	if root == "" {
		root = "data"
	}
	return &Local{root: root}
}

// MakeObjectKey builds a tidy, collision-free object key:
// <scope>/<ownerID>/<uuid>_<filename>
func (l *Local) MakeObjectKey(scope, ownerID, filename string) string {
	return path.Join(scope, ownerID, uuid.NewString()[:8]+"_"+filename)
}

// Save writes an object and returns the number of bytes written.
func (l *Local) Save(key string, r io.Reader) (int64, error) {
	full := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("storage: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("storage: create: %w", err)
	}
	defer f.Close()
	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("storage: write: %w", err)
	}
	return n, nil
}

// Path resolves a key to the on-disk path for serving or removal.
func (l *Local) Path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Remove deletes an object; missing objects are not an error.
func (l *Local) Remove(key string) error {
	err := os.Remove(l.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}
