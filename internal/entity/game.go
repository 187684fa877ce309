package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/minesweeper-backend/internal/apperror"
)

type Status string

const (
	StatusActive Status = "active"
	StatusWon    Status = "won"
	StatusLost   Status = "lost"
)

// RevealResult is the outcome of a reveal action. The non-noop values are
// also the outcome strings written to move logs.
type RevealResult string

const (
	RevealNoOp RevealResult = "noop"
	RevealMine RevealResult = "mine"
	RevealSafe RevealResult = "safe"
	RevealWin  RevealResult = "win"
)

type FlagResult string

const (
	FlagNoOp    FlagResult = "noop"
	FlagAdded   FlagResult = "added"
	FlagRemoved FlagResult = "removed"
)

// Game is one play or replay session. Revealed and flagged membership is
// owned by the game and only reachable through its accessors.
type Game struct {
	Size          int          `json:"size"`
	MinesCount    int          `json:"mines_count"`
	PlayerName    string       `json:"player_name"`
	Board         *Board       `json:"board"`
	MinePositions []Coordinate `json:"mine_positions"`
	MoveCount     int          `json:"move_count"`
	Status        Status       `json:"status"`
	StartedAt     time.Time    `json:"started_at,omitempty"`

	revealed map[Coordinate]struct{}
	flagged  map[Coordinate]struct{}
}

func NewGame(playerName string, minesCount int, board *Board, minePositions []Coordinate) *Game {
	return &Game{
		Size:          board.Size,
		MinesCount:    minesCount,
		PlayerName:    playerName,
		Board:         board,
		MinePositions: minePositions,
		Status:        StatusActive,
		revealed:      make(map[Coordinate]struct{}),
		flagged:       make(map[Coordinate]struct{}),
	}
}

func (that *Game) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Game) IsWon() bool {
	return that.Status == StatusWon
}

func (that *Game) IsLost() bool {
	return that.Status == StatusLost
}

func (that *Game) IsTerminal() bool {
	return that.IsWon() || that.IsLost()
}

func (that *Game) ConfirmActive() error {
	switch that.Status {
	case StatusActive:
		return nil
	case StatusWon, StatusLost:
		return apperror.ErrGameFinished
	default:
		return fmt.Errorf("unknown game status: %s", that.Status)
	}
}

// MarkRevealed records a coordinate in the revealed set and sets the cell bit.
func (that *Game) MarkRevealed(c Coordinate) {
	that.Board.Cell(c.X, c.Y).Revealed = true
	that.revealed[c] = struct{}{}
}

func (that *Game) SetFlagged(c Coordinate, flagged bool) {
	that.Board.Cell(c.X, c.Y).Flagged = flagged
	if flagged {
		that.flagged[c] = struct{}{}
		return
	}
	delete(that.flagged, c)
}

func (that *Game) IsRevealed(c Coordinate) bool {
	_, ok := that.revealed[c]
	return ok
}

func (that *Game) IsFlagged(c Coordinate) bool {
	_, ok := that.flagged[c]
	return ok
}

func (that *Game) RevealedCount() int {
	return len(that.revealed)
}

func (that *Game) FlaggedCount() int {
	return len(that.flagged)
}

// RemainingMines can go negative when the player places more flags than mines.
func (that *Game) RemainingMines() int {
	return that.MinesCount - len(that.flagged)
}

// SafeCellsCount is the number of revealed cells that wins the game.
func (that *Game) SafeCellsCount() int {
	return that.Size*that.Size - that.MinesCount
}

// RecordStatus maps a terminal status to the persisted "win"/"lose" value.
func (that *Game) RecordStatus() string {
	switch that.Status {
	case StatusWon:
		return RecordStatusWin
	case StatusLost:
		return RecordStatusLose
	default:
		return ""
	}
}
