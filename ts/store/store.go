// Package store persists the displayed text between visits
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// StorageKey is the key the text content is saved under
const StorageKey = "textscreen-content"

// ErrNotFound is returned when nothing is stored for a key
var ErrNotFound = errors.New("store: key not found")

// Store saves and restores text by key
type Store interface {
	Load(key string) (string, error)
	Save(key string, value string) error
}

// Key returns the storage key for a screen. The default screen uses the
// bare StorageKey.
func Key(screenID string) string {
	if len(screenID) == 0 {
		return StorageKey
	}
	return fmt.Sprintf("%s:%s", StorageKey, screenID)
}

// Unescape restores newlines that older saves stored as NUL characters
func Unescape(value string) string {
	return strings.ReplaceAll(value, "\u0000", "\n")
}

// LoadText loads the text for key, returning an empty string when nothing
// was saved.
func LoadText(s Store, key string) (string, error) {
	value, err := s.Load(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return Unescape(value), nil
}

// Memory is a Store kept in memory
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory creates an empty memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Load returns the value for key
func (m *Memory) Load(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, found := m.data[key]
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

// Save stores value under key
func (m *Memory) Save(key string, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

// File is a Store backed by a yaml file. The whole file is rewritten on
// every save.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFile opens the yaml store at path. A missing file is an empty store.
func NewFile(path string) (*File, error) {
	f := &File{path: path, data: make(map[string]string)}
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store %s: %w", path, err)
	}
	if err = yaml.Unmarshal(contents, &f.data); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal store %s: %w", path, err)
	}
	if f.data == nil {
		f.data = make(map[string]string)
	}
	return f, nil
}

// Load returns the value for key
func (f *File) Load(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, found := f.data[key]
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

// Save stores value under key and writes the file
func (f *File) Save(key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value

	contents, err := yaml.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("yaml.Marshal store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".store-*")
	if err != nil {
		return fmt.Errorf("creating temp store: %w", err)
	}
	if _, err = tmp.Write(contents); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing store: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing store: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}
