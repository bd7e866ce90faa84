// Package file implements session.Store as a single JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gosuda/garagedesk/internal/session"
)

// Sealer encrypts values at rest. *secrets.Vault satisfies this interface.
type Sealer interface {
	Seal(label, plaintext string) (string, error)
	Open(label, sealed string) (string, error)
}

// Store keeps all keys in one file, rewritten atomically on every change.
type Store struct {
	path   string
	sealer Sealer // nil stores plaintext

	mu sync.Mutex
}

var _ session.Store = (*Store)(nil)

// New returns a Store backed by path. The parent directory is created with
// 0700 permissions if missing. sealer may be nil.
func New(path string, sealer Sealer) (*Store, error) {
	if path == "" {
		return nil, errors.New("file.New: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("file.New: %w", err)
	}
	return &Store{path: path, sealer: sealer}, nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", fmt.Errorf("file.Store.Get: %w", err)
	}

	raw, ok := values[key]
	if !ok {
		return "", session.ErrNotFound
	}

	if s.sealer == nil {
		return raw, nil
	}
	plain, err := s.sealer.Open(key, raw)
	if err != nil {
		return "", fmt.Errorf("file.Store.Get: %w", err)
	}
	return plain, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return fmt.Errorf("file.Store.Set: %w", err)
	}

	if s.sealer != nil {
		value, err = s.sealer.Seal(key, value)
		if err != nil {
			return fmt.Errorf("file.Store.Set: %w", err)
		}
	}
	values[key] = value

	if err := s.save(values); err != nil {
		return fmt.Errorf("file.Store.Set: %w", err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return fmt.Errorf("file.Store.Remove: %w", err)
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)

	if err := s.save(values); err != nil {
		return fmt.Errorf("file.Store.Remove: %w", err)
	}
	return nil
}

func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return values, nil
}

// save writes to a temp file in the same directory and renames it over the
// target so a crash never leaves a half-written document.
func (s *Store) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
