package indices

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.yaml
var embeddedSchemas embed.FS

// DefaultSchemas returns the schema resources compiled into the binary.
func DefaultSchemas() fs.FS {
	sub, err := fs.Sub(embeddedSchemas, "schemas")
	if err != nil {
		panic(err)
	}
	return sub
}

// Registry loads index schemas once per kind and hands out the cached copy.
type Registry struct {
	fsys    fs.FS
	mu      sync.Mutex
	schemas map[Kind]*Schema
}

// NewRegistry creates a registry reading <kind>.yaml files from fsys.
// A nil fsys uses the embedded schemas.
func NewRegistry(fsys fs.FS) *Registry {
	if fsys == nil {
		fsys = DefaultSchemas()
	}
	return &Registry{
		fsys:    fsys,
		schemas: make(map[Kind]*Schema),
	}
}

// Get returns the schema for kind. Failures are reported as *ConfigurationError.
func (r *Registry) Get(kind Kind) (*Schema, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, &ConfigurationError{Kind: kind, Err: fmt.Errorf("%w: %v", ErrSchemaNotFound, err)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.schemas[kind]; ok {
		return s, nil
	}

	s, err := r.load(kind)
	if err != nil {
		return nil, &ConfigurationError{Kind: kind, Err: err}
	}
	r.schemas[kind] = s
	return s, nil
}

// Preload loads every known kind and returns the first failure.
func (r *Registry) Preload() error {
	for _, k := range allKinds {
		if _, err := r.Get(k); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) load(kind Kind) (*Schema, error) {
	data, err := fs.ReadFile(r.fsys, string(kind)+".yaml")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSchemaNotFound
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	fields, err := ParseMapping(body)
	if err != nil {
		return nil, err
	}

	return &Schema{Kind: kind, Body: body, Fields: fields}, nil
}
