// Package identity remembers the chosen display name between runs in a small
// JSON key-value file.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vedran77/huddle/internal/domain"
)

const UsernameKey = "username"

type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is huddle/identity.json under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "huddle", "identity.json"), nil
}

// Get returns "" when the key or the file does not exist.
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return values, nil
}

// write replaces the file through a rename so a crash never leaves half a
// file behind.
func (s *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating identity dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".identity-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load resolves the identity once at start-up. A non-empty override wins and
// is remembered for next time.
func Load(store *FileStore, override string) (domain.Identity, error) {
	if name := strings.TrimSpace(override); name != "" {
		if err := store.Set(UsernameKey, name); err != nil {
			return domain.Identity{}, err
		}
		return domain.Identity{Username: name}, nil
	}
	name, err := store.Get(UsernameKey)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{Username: strings.TrimSpace(name)}, nil
}
