package minesweeper

import (
	"math/rand/v2"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
)

// RandomSource is satisfied by *rand.Rand from math/rand/v2.
type RandomSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n) //nolint: gosec // board layout is not security sensitive
}

// Generate builds a size×size board with minesCount mines placed uniformly
// at random without replacement. The caller guarantees 0 < minesCount < size².
func Generate(size, minesCount int, rnd RandomSource) (*entity.Board, []entity.Coordinate) {
	if rnd == nil {
		rnd = globalSource{}
	}

	board := entity.NewBoard(size)
	positions := make([]entity.Coordinate, 0, minesCount)

	for len(positions) < minesCount {
		x := rnd.IntN(size)
		y := rnd.IntN(size)

		cell := board.Cell(x, y)
		if cell.IsMine {
			continue
		}

		cell.IsMine = true
		positions = append(positions, entity.Coordinate{X: x, Y: y})
	}

	computeNumbers(board)

	return board, positions
}

// PlaceMines resets the board and marks exactly the given positions as mines.
func PlaceMines(board *entity.Board, positions []entity.Coordinate) {
	for x := range board.Cells {
		for y := range board.Cells[x] {
			board.Cells[x][y] = entity.Cell{}
		}
	}

	for _, pos := range positions {
		board.Cell(pos.X, pos.Y).IsMine = true
	}

	computeNumbers(board)
}

func computeNumbers(board *entity.Board) {
	for x := range board.Cells {
		for y := range board.Cells[x] {
			cell := board.Cell(x, y)
			if cell.IsMine {
				continue
			}

			cell.Number = countAdjacentMines(board, x, y)
		}
	}
}

func countAdjacentMines(board *entity.Board, x, y int) int {
	count := 0
	for _, n := range board.Neighbors(x, y) {
		if board.Cell(n.X, n.Y).IsMine {
			count++
		}
	}

	return count
}
