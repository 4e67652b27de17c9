// Command analyze prints quick, human-readable numbers about the board
// variants in the project's configs directory: board size, how many distinct
// winning lines each axis offers, how many tokens each player gets, and the
// earliest play on which a game can end.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wricardo/connect-in-the-dark/game/config"
	"github.com/wricardo/connect-in-the-dark/game/engine"
	"github.com/wricardo/connect-in-the-dark/game/service"
)

var axes = [4]string{"vertical", "horizontal", "diagonal", "anti-diagonal"}

// Analysis holds the derived numbers for one variant.
type Analysis struct {
	Name     string
	Cells    int
	Lines    [4]int
	Tokens   map[int]int // players -> tokens per player
	FirstWin int         // earliest play that can win, 1-based
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", dir, err)
		os.Exit(1)
	}
	infos, err := manager.ListConfigs()
	if err != nil {
		fmt.Printf("Error listing configs: %v\n", err)
		os.Exit(1)
	}

	for _, info := range infos {
		fmt.Printf("\n=== Analyzing %s ===\n", info.ConfigID)
		report(os.Stdout, analyze(info))
	}
}

func analyze(info *service.ConfigInfo) Analysis {
	a := Analysis{
		Name:   info.Name,
		Cells:  info.Width * info.Height,
		Lines:  engine.WinningLines(info.Width, info.Height, info.RunLength),
		Tokens: make(map[int]int),
	}

	maxPlayers := info.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = info.MinPlayers
	}
	for players := info.MinPlayers; players <= maxPlayers; players++ {
		a.Tokens[players] = (a.Cells + players - 1) / players
	}

	// The first player completes a run on their RunLength-th turn
	a.FirstWin = (info.RunLength-1)*info.MinPlayers + 1
	return a
}

func report(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Cells (max plays): %d\n", a.Cells)

	total := 0
	for i, n := range a.Lines {
		fmt.Fprintf(w, "  %-14s %d lines\n", axes[i]+":", n)
		total += n
	}
	fmt.Fprintf(w, "Winning lines: %d\n", total)

	for players := 2; players <= engine.MaxPlayers; players++ {
		if tokens, ok := a.Tokens[players]; ok {
			fmt.Fprintf(w, "  %d players: up to %d tokens each\n", players, tokens)
		}
	}
	fmt.Fprintf(w, "Earliest win: play %d\n", a.FirstWin)

	if total == 0 {
		fmt.Fprintf(w, "⚠️  WARNING: no line of this length fits on the board\n")
	}
}
