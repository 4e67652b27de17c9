// Command validate checks the board variant JSON files in a configs
// directory (default ./configs). For each file it checks:
//   - JSON structure and the engine's size, run length and player limits
//   - The variant name matches the file name
//   - A run is reachable: with the most players allowed, each one still
//     gets enough tokens to complete a line
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/connect-in-the-dark/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single variant file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.ParseGameConfig(data)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if want := strings.TrimSuffix(result.File, ".json"); config.Name != want {
		result.fail("name %q does not match file name %q", config.Name, want)
	}

	players := config.MaxPlayers
	if players == 0 {
		players = config.MinPlayers
	}
	tokens := config.Width * config.Height / players
	if tokens < config.RunLength {
		result.fail("with %d players each gets %d tokens, fewer than run_length %d", players, tokens, config.RunLength)
	}

	if result.Valid {
		lines := engine.WinningLines(config.Width, config.Height, config.RunLength)
		result.info("Name: %s", config.Name)
		result.info("Board: %dx%d", config.Width, config.Height)
		result.info("Connect: %d", config.RunLength)
		result.info("Players: %s", playerRange(config))
		result.info("Winning lines: %d", lines[0]+lines[1]+lines[2]+lines[3])
	}

	return result
}

func playerRange(config *engine.GameConfig) string {
	if config.MaxPlayers == 0 {
		return fmt.Sprintf("%d+", config.MinPlayers)
	}
	return fmt.Sprintf("%d-%d", config.MinPlayers, config.MaxPlayers)
}

// main scans the configs directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
