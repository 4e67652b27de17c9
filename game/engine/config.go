package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfig returns the canonical 7x6, four-in-a-row variant
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Seven columns, six rows, connect four in the dark",
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		RunLength:   DefaultRun,
		MinPlayers:  MinPlayers,
	}
}

// ValidateGameConfig validates a board variant for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.Width < MinBoardSize || config.Width > MaxBoardSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.Width)
	}
	if config.Height < MinBoardSize || config.Height > MaxBoardSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.Height)
	}

	// A run must fit along at least one axis or nobody can ever win
	longest := max(config.Width, config.Height)
	if config.RunLength < MinRunLength || config.RunLength > longest {
		return fmt.Errorf("config validation: run_length must be between %d and %d, got %d", MinRunLength, longest, config.RunLength)
	}

	if config.MinPlayers < MinPlayers || config.MinPlayers > MaxPlayers {
		return fmt.Errorf("config validation: min_players must be between %d and %d, got %d", MinPlayers, MaxPlayers, config.MinPlayers)
	}
	if config.MaxPlayers != 0 && (config.MaxPlayers < config.MinPlayers || config.MaxPlayers > MaxPlayers) {
		return fmt.Errorf("config validation: max_players must be between min_players (%d) and %d, got %d",
			config.MinPlayers, MaxPlayers, config.MaxPlayers)
	}

	return nil
}

// LoadGameConfig loads a board variant from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseGameConfig(data)
}

// ParseGameConfig decodes and validates a JSON board variant
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigByName loads a board variant by name from dir
func LoadConfigByName(dir, configName string) (*GameConfig, error) {
	if !strings.HasSuffix(configName, ".json") {
		configName = configName + ".json"
	}

	configPath := filepath.Join(dir, configName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file '%s' not found", configName)
	}

	config, err := LoadGameConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", configName, err)
	}
	return config, nil
}

// WinningLines counts every distinct straight run of runLength cells on a
// width x height board, per axis: vertical, horizontal, diagonal, anti-diagonal.
func WinningLines(width, height, runLength int) [4]int {
	var lines [4]int
	if runLength <= 0 {
		return lines
	}
	fit := func(n int) int { return max(0, n-runLength+1) }
	lines[0] = width * fit(height)
	lines[1] = fit(width) * height
	lines[2] = fit(width) * fit(height)
	lines[3] = lines[2]
	return lines
}
