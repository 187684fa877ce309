package minesweeper

import (
	"fmt"
	"io"
	"strings"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
)

// Render writes a plain-text picture of the board: "-" hidden, "F" flag,
// "*" mine, "." empty, digits for numbers.
func Render(w io.Writer, view *entity.GameView) error {
	var sb strings.Builder

	sb.WriteString("   ")
	for y := 0; y < view.Size; y++ {
		fmt.Fprintf(&sb, "%2d", y)
	}
	sb.WriteString("\n")

	for x, row := range view.Cells {
		fmt.Fprintf(&sb, "%2d:", x)
		for _, cell := range row {
			sb.WriteString(" ")
			sb.WriteString(cellSymbol(cell))
		}
		sb.WriteString("\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to render board: %w", err)
	}

	return nil
}

func cellSymbol(cell entity.CellView) string {
	switch {
	case !cell.Revealed && cell.Flagged:
		return "F"
	case !cell.Revealed:
		return "-"
	case cell.IsMine:
		return "*"
	case cell.Number == 0:
		return "."
	default:
		return fmt.Sprintf("%d", cell.Number)
	}
}
