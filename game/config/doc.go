// Package config provides board variant management for Connect in the Dark.
//
// The config package handles:
//   - Loading board variants from JSON files
//   - Validation through engine.ValidateGameConfig
//   - Default variant selection
//   - Variant discovery and listing
//
// Configuration Format:
//
// Variants are stored as JSON files in the configs directory:
//
//	{
//	  "name": "classic",
//	  "description": "Seven columns, six rows, connect four in the dark",
//	  "width": 7,
//	  "height": 6,
//	  "run_length": 4,
//	  "min_players": 2
//	}
//
// The classic variant is built in and is used when no classic.json is
// present, so the server runs without a configs directory at all.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := manager.SetDefault("wide"); err != nil {
//		log.Fatal(err)
//	}
//	variants, err := manager.ListConfigs()
package config
