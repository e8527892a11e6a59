package modules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"muzzman/internal/failure"
)

var (
	ErrKindExists = errors.New("plugin kind already registered")
	ErrNilFactory = errors.New("plugin factory is nil")
)

// Registry stores plugin factories by kind.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewDefaultRegistry creates a registry holding the builtin plugins.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(FileKind, func() Plugin { return NewFilePlugin() })
	return r
}

// Register adds a factory under kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if factory == nil {
		return ErrNilFactory
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return fmt.Errorf("%w: empty plugin kind", failure.ErrInvalid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[kind]; ok {
		return fmt.Errorf("%w: %s", ErrKindExists, kind)
	}
	r.factories[kind] = factory
	return nil
}

// New instantiates the plugin registered under kind.
func (r *Registry) New(kind string) (Plugin, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, failure.Newf(failure.ErrLoad, "unknown module kind %q", kind)
	}
	return factory(), nil
}

// Kinds returns registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
