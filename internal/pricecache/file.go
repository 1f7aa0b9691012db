package pricecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	filePrefix = "adjclose_"
	fileSuffix = ".msgpack"
)

// FileStore keeps one file per fingerprint under dir
// ⭐ 기록은 임시 파일 + rename (원자적 교체, 잠금 없음)
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Name returns the backend name
func (s *FileStore) Name() string { return "file" }

// Path returns the file path of a fingerprint
func (s *FileStore) Path(fingerprint string) string {
	return filepath.Join(s.dir, filePrefix+fingerprint+fileSuffix)
}

// Load reads the entry for fingerprint
func (s *FileStore) Load(_ context.Context, fingerprint string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(fingerprint))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Save atomically writes the entry for fingerprint
func (s *FileStore) Save(_ context.Context, fingerprint string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // rename 성공 시 no-op

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return os.Rename(tmpName, s.Path(fingerprint))
}

// List returns stored entries sorted by fingerprint
func (s *FileStore) List(_ context.Context) ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), filePrefix), fileSuffix)
		entries = append(entries, Entry{
			Fingerprint: name,
			Size:        info.Size(),
			StoredAt:    info.ModTime().UTC(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Fingerprint < entries[j].Fingerprint
	})
	return entries, nil
}

// Clear removes every entry and returns how many were removed
func (s *FileStore) Clear(ctx context.Context) (int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if err := os.Remove(s.Path(e.Fingerprint)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
