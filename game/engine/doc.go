// Package engine provides the core game logic for Connect in the Dark.
//
// The engine package implements the game mechanics including:
//   - Column-drop placement on a column-major board
//   - Win detection along the four line axes
//   - Per-viewer redaction of the board
//   - Turn order and turn advancement
//   - Board variant loading and validation
//
// Core Types:
//
// Board is a grid of tagged cells (Empty, Unknown, Owned). Game wraps a
// board with a shuffled turn order and the current turn index. GameConfig
// describes a board variant loaded from JSON.
//
// Usage:
//
//	game, err := engine.NewGame(engine.DefaultConfig(), []string{"alice", "bob"}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := game.Play(game.CurrentPlayer(), 3)
//	view := game.View("alice")
//
// Game Rules:
//
// Players take turns dropping a token into a column; it lands in the lowest
// empty row. A player wins by completing a straight line of run_length of
// their own tokens. Each player only ever sees their own tokens; every
// other occupied cell is shown as unknown until the game ends.
//
// The package does no I/O and holds no locks. A Game must be guarded by
// its caller.
package engine
