package entity

// Coordinate addresses a cell as board[X][Y]; X is the row.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Cell struct {
	IsMine   bool `json:"is_mine"`
	Number   int  `json:"number"`
	Revealed bool `json:"revealed"`
	Flagged  bool `json:"flagged"`
}

// Board is a square grid of cells.
type Board struct {
	Size  int      `json:"size"`
	Cells [][]Cell `json:"cells"`
}

func NewBoard(size int) *Board {
	cells := make([][]Cell, size)
	for x := range cells {
		cells[x] = make([]Cell, size)
	}

	return &Board{
		Size:  size,
		Cells: cells,
	}
}

func (that *Board) InBounds(x, y int) bool {
	return x >= 0 && x < that.Size && y >= 0 && y < that.Size
}

// Cell returns a pointer into the grid. The coordinate must be in bounds.
func (that *Board) Cell(x, y int) *Cell {
	return &that.Cells[x][y]
}

// Neighbors returns the up-to-8 Moore neighbors of (x, y), clipped at the border.
func (that *Board) Neighbors(x, y int) []Coordinate {
	neighbors := make([]Coordinate, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}

			nx, ny := x+dx, y+dy
			if that.InBounds(nx, ny) {
				neighbors = append(neighbors, Coordinate{X: nx, Y: ny})
			}
		}
	}

	return neighbors
}

func (that *Board) MinesCount() int {
	count := 0
	for x := range that.Cells {
		for y := range that.Cells[x] {
			if that.Cells[x][y].IsMine {
				count++
			}
		}
	}

	return count
}
