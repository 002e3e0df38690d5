// Package media owns the local copies of uploaded files that players stream
// from. Each copy is a Handle; it lives until Release or Close.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrHandleNotFound is returned by Lookup for unknown or released handles.
var ErrHandleNotFound = errors.New("media handle not found")

// Handle is a playable local copy of an uploaded file.
type Handle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"-"`
	Size int64  `json:"size"`
}

// URL returns the path the HTTP API serves the handle under.
func (h *Handle) URL() string {
	return "/media/" + h.ID
}

// Handles tracks the handles created under one directory. Safe for concurrent use.
type Handles struct {
	mu      sync.Mutex
	dir     string
	handles map[string]*Handle
}

// NewHandles returns a Handles that writes under dir. An empty dir uses os.TempDir().
func NewHandles(dir string) (*Handles, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Handles{dir: dir, handles: make(map[string]*Handle)}, nil
}

// Acquire copies r into a new file and returns its handle.
func (hs *Handles) Acquire(name string, r io.Reader) (*Handle, error) {
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(name))

	f, err := os.CreateTemp(hs.dir, "upload-"+id+"-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("write media file: %w", err)
	}

	h := &Handle{ID: id, Name: filepath.Base(name), Path: f.Name(), Size: n}
	hs.mu.Lock()
	hs.handles[id] = h
	hs.mu.Unlock()
	return h, nil
}

// Lookup returns a live handle.
func (hs *Handles) Lookup(id string) (*Handle, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	h, ok := hs.handles[id]
	if !ok {
		return nil, ErrHandleNotFound
	}
	return h, nil
}

// Open opens a live handle's file for reading.
func (hs *Handles) Open(id string) (*os.File, error) {
	h, err := hs.Lookup(id)
	if err != nil {
		return nil, err
	}
	return os.Open(h.Path)
}

// Release deletes the handle's file. Releasing an unknown handle is a no-op.
func (hs *Handles) Release(id string) error {
	hs.mu.Lock()
	h, ok := hs.handles[id]
	delete(hs.handles, id)
	hs.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release media handle %s: %w", id, err)
	}
	return nil
}

// Count returns the number of live handles.
func (hs *Handles) Count() int {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return len(hs.handles)
}

// Close releases every live handle.
func (hs *Handles) Close() error {
	hs.mu.Lock()
	ids := make([]string, 0, len(hs.handles))
	for id := range hs.handles {
		ids = append(ids, id)
	}
	hs.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := hs.Release(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
