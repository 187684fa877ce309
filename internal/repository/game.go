package repository

import (
	"context"
	"errors"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
)

var ErrGameNotFound = errors.New("game not found")

// GameRepository stores finished games and their move logs. Records are
// written once, atomically, and never updated or deleted.
type GameRepository interface {
	// Save writes the game and all of its moves in one transaction and
	// returns the generated game id.
	Save(ctx context.Context, record *entity.NewGameRecord) (int64, error)

	GetByID(ctx context.Context, id int64) (*entity.GameRecord, error)

	// List returns every game, most recent first.
	List(ctx context.Context) ([]*entity.GameRecord, error)
	ListByPlayer(ctx context.Context, player string) ([]*entity.GameRecord, error)

	// Moves returns the move log of a game ordered by move number.
	Moves(ctx context.Context, gameID int64) ([]*entity.MoveRecord, error)
}
