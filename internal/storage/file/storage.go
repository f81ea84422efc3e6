package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mcoot/gameshelf/internal/storage"
)

// Storage keeps each collection in its own JSON array file, e.g.
// <dir>/users.json. Files are replaced atomically via rename.
type Storage struct {
	dir string
}

// New creates a file storage rooted at dir, creating the directory if needed
func New(dir string) (*Storage, error) {
	if dir == "" {
		return nil, errors.New("file storage requires a data directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Ensure Storage implements the interface
var _ storage.Backend = (*Storage)(nil)

// Dir returns the data directory
func (s *Storage) Dir() string {
	return s.dir
}

// Path returns the file holding the given collection
func (s *Storage) Path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *Storage) Load(_ context.Context, collection string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.Path(collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []json.RawMessage{}, nil
		}
		return nil, err
	}

	// An empty file is an empty collection
	if len(bytes.TrimSpace(data)) == 0 {
		return []json.RawMessage{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path(collection), err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

func (s *Storage) Persist(_ context.Context, collection string, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// Rename consumed the file on success, so this only cleans up failures
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.Path(collection))
}

func (s *Storage) Close() error {
	return nil
}
