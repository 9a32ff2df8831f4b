// Package cache provides the file-resident JSON key-value store used
// to memoize categorizer responses.
//
// The whole mapping is loaded lazily on first access and rewritten
// wholesale on every Set. Only one pipeline run is active at a time,
// so there is no cross-process locking; concurrent writers could lose
// updates, which is acceptable for a memoization cache.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// File is a JSON-backed key-value cache.
type File struct {
	path string

	mu      sync.Mutex
	loaded  bool
	entries map[string]json.RawMessage
}

// New creates a cache backed by the file at path. The file is not
// touched until the first access.
func New(path string) *File {
	return &File{path: path}
}

// Get returns the raw value stored under key, or ok=false.
func (f *File) Get(key string) (json.RawMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.load()
	v, ok := f.entries[key]
	return v, ok
}

// GetJSON decodes the value stored under key into out.
func (f *File) GetJSON(key string, out any) bool {
	raw, ok := f.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// Set stores value under key and rewrites the whole backing file.
func (f *File) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.load()
	f.entries[key] = raw
	return f.save()
}

// load reads the backing file once. A missing or corrupt file starts
// an empty cache rather than failing.
func (f *File) load() {
	if f.loaded {
		return
	}
	f.loaded = true
	f.entries = make(map[string]json.RawMessage)

	data, err := os.ReadFile(f.path)
	if err != nil {
		return
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	f.entries = entries
}

func (f *File) save() error {
	data, err := json.Marshal(f.entries)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}
