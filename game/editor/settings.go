package editor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/roadgrid/game/grid"
	"github.com/wricardo/roadgrid/game/placement"
	"github.com/wricardo/roadgrid/game/prefab"
	"github.com/wricardo/roadgrid/game/tiles"
)

// Grid size limits for configured scenes
const (
	MinGridSize = 2
	MaxGridSize = 256
)

// Settings is the on-disk description of a scene: its size, road tiles,
// placeable prefabs and an optional starting road layout
type Settings struct {
	Name            string              `json:"name" yaml:"name"`
	Description     string              `json:"description" yaml:"description"`
	Width           int                 `json:"width" yaml:"width"`
	Height          int                 `json:"height" yaml:"height"`
	Tiles           *tiles.TileSet      `json:"tiles,omitempty" yaml:"tiles,omitempty"`
	Prefabs         []prefab.Descriptor `json:"prefabs,omitempty" yaml:"prefabs,omitempty"`
	LegacyHeuristic bool                `json:"legacy_heuristic,omitempty" yaml:"legacy_heuristic,omitempty"`

	// Layout rows, top row first, using 'R' for road and '.' for empty
	Layout []string `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// TileSet returns the configured tiles or the default set
func (s *Settings) TileSet() tiles.TileSet {
	if s.Tiles != nil {
		return *s.Tiles
	}
	return tiles.DefaultTileSet()
}

// Config converts settings into an editor Config
func (s *Settings) Config(factory placement.ModelFactory) Config {
	return Config{
		Width:           s.Width,
		Height:          s.Height,
		Tiles:           s.TileSet(),
		Prefabs:         s.Prefabs,
		LegacyHeuristic: s.LegacyHeuristic,
		Factory:         factory,
	}
}

// ValidateSettings validates a scene configuration
func ValidateSettings(s *Settings) error {
	if s.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if s.Width < MinGridSize || s.Width > MaxGridSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinGridSize, MaxGridSize, s.Width)
	}
	if s.Height < MinGridSize || s.Height > MaxGridSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinGridSize, MaxGridSize, s.Height)
	}

	ts := s.TileSet()
	if err := ts.Validate(); err != nil {
		return fmt.Errorf("config validation: %v", err)
	}

	seen := make(map[string]bool)
	for i, d := range s.Prefabs {
		if d.Name == "" {
			return fmt.Errorf("config validation: prefab %d has no name", i+1)
		}
		if seen[d.Name] {
			return fmt.Errorf("config validation: prefab %q is declared twice", d.Name)
		}
		seen[d.Name] = true
		if d.Color != d.Color.Clamp() {
			return fmt.Errorf("config validation: prefab %q color components must be within [0,1]", d.Name)
		}
	}

	if len(s.Layout) == 0 {
		return nil
	}
	if len(s.Layout) != s.Height {
		return fmt.Errorf("config validation: layout must have %d rows to match height, got %d", s.Height, len(s.Layout))
	}
	for i, row := range s.Layout {
		if len(row) != s.Width {
			return fmt.Errorf("config validation: row %d must have %d characters to match width, got %d", i+1, s.Width, len(row))
		}
		for j, char := range row {
			if char != 'R' && char != '.' {
				return fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", char, i+1, j+1)
			}
		}
	}
	return nil
}

// ParseSettings decodes settings from JSON or, for .yaml and .yml names,
// from YAML, and validates them
func ParseSettings(filename string, data []byte) (*Settings, error) {
	var s Settings
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := ValidateSettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSettings reads a scene configuration file
func LoadSettings(filename string) (*Settings, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	return ParseSettings(configPath, data)
}

// NewFromSettings validates s, creates an editor for it and draws its
// starting layout
func NewFromSettings(s *Settings, factory placement.ModelFactory) (*Editor, error) {
	if err := ValidateSettings(s); err != nil {
		return nil, err
	}
	e, err := New(s.Config(factory))
	if err != nil {
		return nil, err
	}
	e.applyLayout(s.Layout)
	return e, nil
}

// applyLayout commits a road on every 'R' cell. Rows run top to bottom, so
// the first row is y = height-1.
func (e *Editor) applyLayout(layout []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, row := range layout {
		y := len(layout) - 1 - i
		for x, char := range row {
			if char != 'R' {
				continue
			}
			p := grid.Point{X: x, Y: y}
			if !e.grid.ContainsPoint(p) {
				continue
			}
			e.session.BeginOrContinue(p, true)
			e.endDrag()
		}
	}
}
