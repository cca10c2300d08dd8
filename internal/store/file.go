package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"facility-intake-backend/internal/types"
)

// FileStore persists recovery data as a JSON object on disk, keyed like
// browser local storage.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "data/recovery.json"
	}
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) SaveLastSubmission(_ context.Context, p types.SurveyPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readLocked()
	if err != nil {
		return err
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	entries[LastSubmissionKey] = b

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	// Contact details: owner-only permissions.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) LoadLastSubmission(_ context.Context) (*types.SurveyPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readLocked()
	if err != nil {
		return nil, err
	}
	raw, ok := entries[LastSubmissionKey]
	if !ok {
		return nil, nil
	}
	var p types.SurveyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStore) readLocked() (map[string]json.RawMessage, error) {
	entries := map[string]json.RawMessage{}
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
