// Package config provides configuration management for the road grid editor.
//
// The config package handles:
//   - Loading scene settings from JSON or YAML files
//   - Validation through editor.ValidateSettings
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Scene configurations live in the configs directory as .json, .yaml or .yml
// files. Each configuration defines the grid size, an optional road tile set,
// the placeable prefabs and an optional starting road layout ('R' for road,
// '.' for empty, top row first).
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration, with or without extension
//	settings, err := manager.LoadConfig("town")
//
//	// Get default configuration (default.* or the first valid file)
//	defaultConfig := manager.GetDefault()
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
package config
