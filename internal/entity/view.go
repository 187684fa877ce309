package entity

import "time"

// CellView is what a client may see of a cell: mines and numbers stay hidden
// until the cell is revealed.
type CellView struct {
	Revealed bool `json:"revealed"`
	Flagged  bool `json:"flagged"`
	IsMine   bool `json:"is_mine,omitempty"`
	Number   int  `json:"number,omitempty"`
}

type GameView struct {
	Size           int          `json:"size"`
	MinesCount     int          `json:"mines_count"`
	PlayerName     string       `json:"player_name"`
	Status         Status       `json:"status"`
	MoveCount      int          `json:"move_count"`
	FlaggedCount   int          `json:"flagged_count"`
	RemainingMines int          `json:"remaining_mines"`
	StartedAt      *time.Time   `json:"started_at,omitempty"`
	Cells          [][]CellView `json:"cells"`
}

// View builds a masked, detached snapshot of the game.
func (that *Game) View() *GameView {
	cells := make([][]CellView, that.Size)
	for x := range cells {
		cells[x] = make([]CellView, that.Size)
		for y := range cells[x] {
			cell := that.Board.Cells[x][y]
			view := CellView{
				Revealed: cell.Revealed,
				Flagged:  cell.Flagged,
			}

			if cell.Revealed {
				view.IsMine = cell.IsMine
				view.Number = cell.Number
			}

			cells[x][y] = view
		}
	}

	view := &GameView{
		Size:           that.Size,
		MinesCount:     that.MinesCount,
		PlayerName:     that.PlayerName,
		Status:         that.Status,
		MoveCount:      that.MoveCount,
		FlaggedCount:   that.FlaggedCount(),
		RemainingMines: that.RemainingMines(),
		Cells:          cells,
	}

	if !that.StartedAt.IsZero() {
		startedAt := that.StartedAt
		view.StartedAt = &startedAt
	}

	return view
}
