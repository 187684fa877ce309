package minesweeper

import (
	"fmt"
	"strings"
	"time"

	"github.com/rocketscienceinc/minesweeper-backend/internal/apperror"
	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
)

// ValidateDimensions checks the construction invariants of a board.
func ValidateDimensions(size, minesCount int) error {
	if size < 1 {
		return fmt.Errorf("%w: size %d must be at least 1", apperror.ErrInvalidBoard, size)
	}

	if minesCount <= 0 || minesCount >= size*size {
		return fmt.Errorf("%w: mines %d must be in (0, %d)", apperror.ErrInvalidBoard, minesCount, size*size)
	}

	return nil
}

// NewGame validates the dimensions and creates an active game with a random layout.
func NewGame(size, minesCount int, playerName string, rnd RandomSource) (*entity.Game, error) {
	if err := ValidateDimensions(size, minesCount); err != nil {
		return nil, err
	}

	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, apperror.ErrInvalidPlayerName
	}

	board, positions := Generate(size, minesCount, rnd)

	return entity.NewGame(playerName, minesCount, board, positions), nil
}

// RestoreGame creates an active game whose mines are exactly the given
// positions, bypassing random placement.
func RestoreGame(size, minesCount int, playerName string, positions []entity.Coordinate) (*entity.Game, error) {
	if err := ValidateDimensions(size, minesCount); err != nil {
		return nil, err
	}

	if len(positions) != minesCount {
		return nil, fmt.Errorf("%w: %d positions for %d mines", apperror.ErrInvalidMineLayout, len(positions), minesCount)
	}

	board := entity.NewBoard(size)
	seen := make(map[entity.Coordinate]struct{}, len(positions))
	for _, pos := range positions {
		if !board.InBounds(pos.X, pos.Y) {
			return nil, fmt.Errorf("%w: mine (%d,%d) is out of bounds", apperror.ErrInvalidMineLayout, pos.X, pos.Y)
		}

		if _, ok := seen[pos]; ok {
			return nil, fmt.Errorf("%w: duplicate mine (%d,%d)", apperror.ErrInvalidMineLayout, pos.X, pos.Y)
		}
		seen[pos] = struct{}{}
	}

	PlaceMines(board, positions)

	restored := make([]entity.Coordinate, len(positions))
	copy(restored, positions)

	return entity.NewGame(playerName, minesCount, board, restored), nil
}

// Reveal opens the cell at (x, y).
func Reveal(game *entity.Game, x, y int) entity.RevealResult {
	if !canReveal(game, x, y) {
		return entity.RevealNoOp
	}

	if game.MoveCount == 0 {
		game.StartedAt = time.Now()
	}

	game.MoveCount++

	pos := entity.Coordinate{X: x, Y: y}
	game.MarkRevealed(pos)

	cell := game.Board.Cell(x, y)
	if cell.IsMine {
		game.Status = entity.StatusLost
		revealAllMines(game)

		return entity.RevealMine
	}

	if cell.Number == 0 {
		floodFill(game, pos)
	}

	if game.RevealedCount() == game.SafeCellsCount() {
		game.Status = entity.StatusWon

		return entity.RevealWin
	}

	return entity.RevealSafe
}

// ToggleFlag flips the flag on an unrevealed cell.
func ToggleFlag(game *entity.Game, x, y int) entity.FlagResult {
	if game.IsTerminal() || !game.Board.InBounds(x, y) {
		return entity.FlagNoOp
	}

	pos := entity.Coordinate{X: x, Y: y}
	if game.IsRevealed(pos) || game.Board.Cell(x, y).Revealed {
		return entity.FlagNoOp
	}

	if game.IsFlagged(pos) {
		game.SetFlagged(pos, false)

		return entity.FlagRemoved
	}

	game.SetFlagged(pos, true)

	return entity.FlagAdded
}

func canReveal(game *entity.Game, x, y int) bool {
	if game.IsTerminal() || !game.Board.InBounds(x, y) {
		return false
	}

	cell := game.Board.Cell(x, y)

	return !cell.Revealed && !cell.Flagged
}

// floodFill expands a zero-number region with an explicit stack. A cell is
// marked revealed before it is pushed, so each cell is pushed at most once.
func floodFill(game *entity.Game, start entity.Coordinate) {
	stack := []entity.Coordinate{start}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, n := range game.Board.Neighbors(current.X, current.Y) {
			cell := game.Board.Cell(n.X, n.Y)
			if cell.Revealed || cell.Flagged || cell.IsMine {
				continue
			}

			game.MarkRevealed(n)

			if cell.Number == 0 {
				stack = append(stack, n)
			}
		}
	}
}

// revealAllMines exposes the mine layout without touching the revealed set.
func revealAllMines(game *entity.Game) {
	for _, pos := range game.MinePositions {
		game.Board.Cell(pos.X, pos.Y).Revealed = true
	}
}
