package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Fallback is the key-value backend: one JSON file holding the legacy
// localStorage-style keys (tasks, customSubcategories,
// collapsedCategories, subcategoryActiveSnapshots). It is a mirror and
// compatibility layer, not the source of truth once the primary store
// is healthy.
type Fallback struct {
	path string
}

func NewFallback(path string) *Fallback {
	return &Fallback{path: path}
}

func (f *Fallback) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	blob := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, err
	}
	return blob, nil
}

func (f *Fallback) write(blob map[string]json.RawMessage) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return os.WriteFile(f.path, data, 0o644)
}

// GetJSON decodes the value under key into into; the boolean reports
// whether the key was present.
func (f *Fallback) GetJSON(key string, into any) (bool, error) {
	blob, err := f.read()
	if err != nil {
		return false, err
	}
	raw, ok := blob[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, into)
}

// PutJSON stores value under key, rewriting the file.
func (f *Fallback) PutJSON(key string, value any) error {
	blob, err := f.read()
	if err != nil {
		// A corrupt file should not wedge every future write.
		blob = map[string]json.RawMessage{}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	blob[key] = raw
	return f.write(blob)
}
