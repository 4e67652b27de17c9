package engine

import (
	"encoding/json"
	"fmt"
)

// CellKind distinguishes the three states a board cell can be in
type CellKind uint8

const (
	Empty CellKind = iota
	Unknown
	Owned
)

const (
	// Wire values for cells that do not carry an owner index.
	EmptyCode   = -1
	UnknownCode = -2

	// Validation constants
	MinBoardSize  = 3
	MaxBoardSize  = 20
	MinRunLength  = 3
	MinPlayers    = 2
	MaxPlayers    = 8
	DefaultWidth  = 7
	DefaultHeight = 6
	DefaultRun    = 4
)

// Cell is a single board slot. Owner is only meaningful when Kind is Owned
// and holds the owner's position in the game's turn order.
type Cell struct {
	Kind  CellKind
	Owner int
}

// EmptyCell returns an unoccupied cell
func EmptyCell() Cell { return Cell{Kind: Empty} }

// UnknownCell returns a cell whose owner is hidden from the viewer
func UnknownCell() Cell { return Cell{Kind: Unknown} }

// OwnedBy returns a cell owned by the player at index owner
func OwnedBy(owner int) Cell { return Cell{Kind: Owned, Owner: owner} }

// IsEmpty reports whether no token has been dropped into the cell
func (c Cell) IsEmpty() bool { return c.Kind == Empty }

// IsOwnedBy reports whether the cell holds a token of the given owner
func (c Cell) IsOwnedBy(owner int) bool { return c.Kind == Owned && c.Owner == owner }

// Code returns the integer used on the wire for this cell
func (c Cell) Code() int {
	switch c.Kind {
	case Owned:
		return c.Owner
	case Unknown:
		return UnknownCode
	default:
		return EmptyCode
	}
}

func (c Cell) String() string {
	switch c.Kind {
	case Owned:
		return fmt.Sprintf("%d", c.Owner)
	case Unknown:
		return "?"
	default:
		return "."
	}
}

// MarshalJSON encodes the cell as its wire code
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Code())
}

// UnmarshalJSON decodes a wire code back into a tagged cell
func (c *Cell) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	switch {
	case code >= 0:
		*c = OwnedBy(code)
	case code == UnknownCode:
		*c = UnknownCell()
	case code == EmptyCode:
		*c = EmptyCell()
	default:
		return fmt.Errorf("invalid cell code %d", code)
	}
	return nil
}

// Coord addresses a cell; Row 0 is the bottom of the column
type Coord struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// GameConfig describes a board variant loaded from JSON
type GameConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	RunLength   int    `json:"run_length"`
	MinPlayers  int    `json:"min_players"`
	MaxPlayers  int    `json:"max_players,omitempty"`
}

// GameView is a snapshot of a game as seen by one viewer
type GameView struct {
	TurnIndex   int      `json:"turn_index"`
	PlayerOrder []string `json:"player_order"`
	PlayIndexes Board    `json:"play_indexes,omitempty"`
}

// PlayResult describes an accepted play
type PlayResult struct {
	Player     string `json:"player"`
	Coord      Coord  `json:"coord"`
	Win        bool   `json:"win"`
	Draw       bool   `json:"draw"`
	NextPlayer string `json:"next_player"`
}
