package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// FileStorage keeps subscribers as a JSON array in a single file, the format
// used by the original deployment's data/subscribers.json.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

func NewFileStorage(path string) *FileStorage {
	if path == "" {
		path = "data/subscribers.json"
	}
	return &FileStorage{path: path}
}

func (s *FileStorage) ListSubscribers(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStorage) AddSubscriber(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.read()
	if err != nil {
		return false, err
	}
	if slices.Contains(list, email) {
		return false, nil
	}
	list = append(list, email)
	if err := s.write(list); err != nil {
		return false, err
	}
	return true, nil
}

// read returns an empty list when the file does not exist yet.
func (s *FileStorage) read() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read subscribers: %w", err)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse subscribers %s: %w", s.path, err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func (s *FileStorage) write(list []string) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create subscribers dir: %w", err)
	}

	// write to a sibling temp file so readers never see a partial document
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".subscribers-*.json")
	if err != nil {
		return fmt.Errorf("write subscribers: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write subscribers: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write subscribers: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write subscribers: %w", err)
	}
	return nil
}

// Ping verifies the file, if present, still parses.
func (s *FileStorage) Ping(ctx context.Context) error {
	_, err := s.ListSubscribers(ctx)
	return err
}

func (s *FileStorage) Close() error { return nil }
