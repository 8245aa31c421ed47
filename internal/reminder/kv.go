package reminder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrKeyNotFound is returned by KV.Get when nothing is stored under the key.
var ErrKeyNotFound = errors.New("key not found")

// KV is the local key/value storage the reminder collection lives in.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Close() error
}

// FileKV keeps one JSON document per key in a directory.
type FileKV struct {
	dir string
	mu  sync.Mutex
}

// NewFileKV creates dir if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Path returns the file backing key.
func (f *FileKV) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) Get(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set writes to a temp file and renames it over the old document.
func (f *FileKV) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) Close() error {
	return nil
}

// MemoryKV is a process-local KV. Nothing survives a restart.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *MemoryKV) Close() error {
	return nil
}

// OpenKV opens the named backend: "json" (files in dir), "sqlite"
// (database at dbPath) or "memory".
func OpenKV(backend, dir, dbPath string) (KV, error) {
	switch backend {
	case "json", "":
		kv, err := NewFileKV(dir)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		kv, err := NewSQLiteKV(dbPath)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
