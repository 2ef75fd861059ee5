package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Durable storage for the encoded registry. Load returns nil data
// when nothing has been saved yet
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// Store backed by a single file. Writes go to a temporary file in the
// same directory that is renamed over the target, so a crash never leaves
// a half written document behind
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (store *FileStore) Path() string {
	return store.path
}

func (store *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(store.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", store.path, err)
	}
	return data, nil
}

func (store *FileStore) Save(data []byte) error {

	dir := filepath.Dir(store.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(store.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, store.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s to %s: %w", tmpName, store.path, err)
	}
	return nil
}

// Store that keeps the document in memory. Nothing survives a restart
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
	// Error returned by the next calls to Save, if set
	FailSave error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (store *MemoryStore) Load() ([]byte, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.data == nil {
		return nil, nil
	}
	return append([]byte(nil), store.data...), nil
}

func (store *MemoryStore) Save(data []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.FailSave != nil {
		return store.FailSave
	}
	store.data = append([]byte(nil), data...)
	return nil
}
