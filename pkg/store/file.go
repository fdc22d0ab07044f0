package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/soundalike/soundalike/pkg/logging"
)

// FileStore is a Store persisted as a yaml catalog artifact. Writes go
// through a temp-file-then-rename so a crash never leaves a torn catalog;
// reads serve from the in-memory working set.
type FileStore struct {
	mu     sync.Mutex
	path   string
	mem    *MemoryStore
	logger logging.Logger
}

// catalogFile is the on-disk layout
type catalogFile struct {
	Entries []*Entry `yaml:"entries"`
}

// NewFileStore opens (or initializes) a catalog at the given path
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		mem:  NewMemoryStore(),
		logger: logging.WithFields(logging.Fields{
			"component": "file_store",
			"path":      path,
		}),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for _, e := range cf.Entries {
		if err := fs.mem.Append(context.Background(), e); err != nil {
			return nil, fmt.Errorf("failed to load catalog entry %s: %w", e.ID, err)
		}
	}

	fs.logger.Info("catalog loaded", logging.Fields{"tracks": len(cf.Entries)})
	return fs, nil
}

// Append adds a new entry and persists the catalog
func (f *FileStore) Append(ctx context.Context, entry *Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.mem.Append(ctx, entry); err != nil {
		return err
	}
	return f.flush(ctx)
}

// Update supersedes an entry and persists the catalog
func (f *FileStore) Update(ctx context.Context, entry *Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.mem.Update(ctx, entry); err != nil {
		return err
	}
	return f.flush(ctx)
}

// Get returns an entry by id
func (f *FileStore) Get(ctx context.Context, id string) (*Entry, error) {
	return f.mem.Get(ctx, id)
}

// LoadAll returns a snapshot of the catalog
func (f *FileStore) LoadAll(ctx context.Context) (*Catalog, error) {
	return f.mem.LoadAll(ctx)
}

// flush writes the catalog artifact atomically; callers hold f.mu
func (f *FileStore) flush(ctx context.Context) error {
	catalog, err := f.mem.LoadAll(ctx)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(&catalogFile{Entries: catalog.Entries})
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}
