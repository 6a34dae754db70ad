// Package prefab is the registry of placeable models known to the editor.
package prefab

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// TagRoad marks prefabs that are laid with the road tool and autotiled.
const TagRoad = "Road"

var (
	ErrUnknownPrefab   = errors.New("unknown prefab")
	ErrDuplicatePrefab = errors.New("duplicate prefab")
)

// Color is an RGBA color with components in [0,1]
type Color struct {
	R float32 `json:"r" yaml:"r"`
	G float32 `json:"g" yaml:"g"`
	B float32 `json:"b" yaml:"b"`
	A float32 `json:"a" yaml:"a"`
}

// White is the color given to objects whose prefab has none
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Clamp limits every component to [0,1]
func (c Color) Clamp() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B), A: clamp01(c.A)}
}

// IsZero reports whether every component is zero
func (c Color) IsZero() bool {
	return c == Color{}
}

// Descriptor describes one placeable prefab
type Descriptor struct {
	Name      string  `json:"name" yaml:"name"`
	Tag       string  `json:"tag" yaml:"tag"`
	Elevation float32 `json:"elevation,omitempty" yaml:"elevation,omitempty"`
	Color     Color   `json:"color,omitempty" yaml:"color,omitempty"`
}

// IsRoad reports whether the prefab is laid by the road tool
func (d Descriptor) IsRoad() bool {
	return d.Tag == TagRoad
}

// DefaultColor returns the descriptor color, or White when unset
func (d Descriptor) DefaultColor() Color {
	if d.Color.IsZero() {
		return White
	}
	return d.Color.Clamp()
}

// Registry resolves prefab names to descriptors
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Descriptor
}

// NewRegistry creates a registry holding the given descriptors
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{entries: make(map[string]Descriptor)}
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a descriptor; names must be unique
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("prefab name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePrefab, d.Name)
	}
	r.entries[d.Name] = d
	return nil
}

// Lookup returns the descriptor registered under name
func (r *Registry) Lookup(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.entries[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownPrefab, name)
	}
	return d, nil
}

// Names returns every registered prefab name, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered prefabs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
