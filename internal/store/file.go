package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/nilesh-r/jobsense/internal/analysis"
)

// DefaultFilePath is used when no history file is configured.
const DefaultFilePath = "jobsense-history.json"

type history struct {
	Items []*analysis.Analysis `json:"items"`
}

// FileStore keeps the analysis history in a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileStore{path: path}
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Save(_ context.Context, a *analysis.Analysis) error {
	if a == nil {
		return errors.New("analysis is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	h, err := f.read()
	if err != nil {
		return err
	}

	replaced := false
	for i, item := range h.Items {
		if item.ID == a.ID {
			h.Items[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		h.Items = append(h.Items, a)
	}

	return f.write(h)
}

func (f *FileStore) Get(_ context.Context, id string) (*analysis.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, err := f.read()
	if err != nil {
		return nil, err
	}

	for _, item := range h.Items {
		if item.ID == id {
			return item, nil
		}
	}

	return nil, ErrNotFound
}

func (f *FileStore) List(_ context.Context) ([]*analysis.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, err := f.read()
	if err != nil {
		return nil, err
	}

	items := h.Items
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

func (f *FileStore) Close() error {
	return nil
}

// read returns an empty history when the file does not exist yet.
func (f *FileStore) read() (*history, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &history{Items: []*analysis.Analysis{}}, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer file.Close()

	var h history
	if err := json.NewDecoder(file).Decode(&h); err != nil {
		return nil, fmt.Errorf("decode history file %q: %w", f.path, err)
	}
	if h.Items == nil {
		h.Items = []*analysis.Analysis{}
	}

	return &h, nil
}

// write replaces the file atomically.
func (f *FileStore) write(h *history) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history_*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h); err != nil {
		tmp.Close()
		return fmt.Errorf("encode history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}
