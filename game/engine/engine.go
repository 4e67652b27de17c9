package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrTooManyPlayers   = errors.New("too many players")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrGameOver         = errors.New("game is over")
	ErrUnknownPlayer    = errors.New("player is not part of this game")
)

// ShuffleFunc permutes the turn order in place
type ShuffleFunc func(players []string)

// RandomShuffle is the default turn-order shuffle
func RandomShuffle(players []string) {
	rand.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})
}

// Game is the state of one connect-in-the-dark match. It is not safe for
// concurrent use; callers serialize access.
type Game struct {
	board     Board
	turnIndex int
	turnOrder []string
	runLength int
	plays     int
	winner    string
	draw      bool
}

// NewGame starts a game for players on a board shaped by config. The
// players slice is copied before shuffling.
func NewGame(config *GameConfig, players []string, shuffle ShuffleFunc) (*Game, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	if len(players) < config.MinPlayers {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughPlayers, config.MinPlayers, len(players))
	}
	if config.MaxPlayers > 0 && len(players) > config.MaxPlayers {
		return nil, fmt.Errorf("%w: at most %d, have %d", ErrTooManyPlayers, config.MaxPlayers, len(players))
	}

	order := append([]string(nil), players...)
	if shuffle == nil {
		shuffle = RandomShuffle
	}
	shuffle(order)

	return &Game{
		board:     NewBoard(config.Width, config.Height),
		turnOrder: order,
		runLength: config.RunLength,
	}, nil
}

// CurrentPlayer returns the id of the player whose turn it is
func (g *Game) CurrentPlayer() string {
	return g.turnOrder[g.turnIndex]
}

// TurnIndex returns the index into the turn order of the current player
func (g *Game) TurnIndex() int { return g.turnIndex }

// TurnOrder returns a copy of the immutable turn order
func (g *Game) TurnOrder() []string {
	return append([]string(nil), g.turnOrder...)
}

// PlayerIndex returns the turn-order position of id, or -1
func (g *Game) PlayerIndex(id string) int {
	for i, p := range g.turnOrder {
		if p == id {
			return i
		}
	}
	return -1
}

// Plays returns the number of accepted plays
func (g *Game) Plays() int { return g.plays }

// Winner returns the winning player id, empty while the game is running
func (g *Game) Winner() string { return g.winner }

// IsDraw reports whether the board filled up without a winner
func (g *Game) IsDraw() bool { return g.draw }

// IsOver reports whether the game has a winner or ended in a draw
func (g *Game) IsOver() bool { return g.winner != "" || g.draw }

// Play drops a token for player into column. On success the turn always
// advances, including on the final play.
func (g *Game) Play(player string, column int) (PlayResult, error) {
	if g.IsOver() {
		return PlayResult{}, ErrGameOver
	}
	if g.CurrentPlayer() != player {
		return PlayResult{}, ErrNotYourTurn
	}

	owner := g.turnIndex
	at, err := g.board.Play(column, owner)
	if err != nil {
		return PlayResult{}, err
	}

	g.plays++
	g.turnIndex = (g.turnIndex + 1) % len(g.turnOrder)

	result := PlayResult{
		Player:     player,
		Coord:      at,
		NextPlayer: g.CurrentPlayer(),
	}
	switch {
	case g.board.CheckWin(at, owner, g.runLength):
		g.winner = player
		result.Win = true
	case g.board.Full():
		g.draw = true
		result.Draw = true
	}
	return result, nil
}

// View returns the game as seen by viewer. Viewers outside the turn order
// see every token as unknown.
func (g *Game) View(viewer string) GameView {
	return GameView{
		TurnIndex:   g.turnIndex,
		PlayerOrder: g.TurnOrder(),
		PlayIndexes: g.board.Redact(g.PlayerIndex(viewer)),
	}
}

// FullView returns the unredacted game
func (g *Game) FullView() GameView {
	return GameView{
		TurnIndex:   g.turnIndex,
		PlayerOrder: g.TurnOrder(),
		PlayIndexes: g.board.Clone(),
	}
}

// Board returns an unredacted copy of the board
func (g *Game) Board() Board {
	return g.board.Clone()
}
