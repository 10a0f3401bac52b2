package regmap

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Repository holds the register maps of several chips, keyed by chip name.
type Repository struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	sources map[string]string
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		schemas: make(map[string]*Schema),
		sources: make(map[string]string),
	}
}

// Add registers a schema under its chip name. A second schema with the same
// name is rejected.
func (r *Repository) Add(s *Schema) error {
	return r.add(s, "")
}

// Lookup returns the schema for a chip.
func (r *Repository) Lookup(chip string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.schemas[chip]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("regmap: no register map for chip %q", chip)
}

// Names lists the registered chip names in ascending order.
func (r *Repository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Source returns the file a chip's schema was loaded from, if any.
func (r *Repository) Source(chip string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[chip]
}

// LoadFiles parses each file and adds every chip it defines.
func (r *Repository) LoadFiles(paths ...string) error {
	for _, path := range paths {
		if err := r.loadFile(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir recursively loads all .yaml/.yml register maps below root.
func (r *Repository) LoadDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isRegmapFile(path) {
			return nil
		}
		return r.loadFile(path)
	})
}

func (r *Repository) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	schemas, err := ParseSchemas(data)
	if err != nil {
		return withFile(err, path)
	}
	for _, s := range schemas {
		if err := r.add(s, path); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) add(s *Schema, source string) error {
	if s == nil {
		return fmt.Errorf("regmap: nil schema")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[s.Name()]; exists {
		return fmt.Errorf("regmap: chip %q already loaded from %s", s.Name(), r.sources[s.Name()])
	}
	r.schemas[s.Name()] = s
	r.sources[s.Name()] = source
	return nil
}

func isRegmapFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
