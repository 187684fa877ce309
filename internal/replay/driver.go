package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/rocketscienceinc/minesweeper-backend/internal/apperror"
	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
	"github.com/rocketscienceinc/minesweeper-backend/internal/minesweeper"
)

var errEmptyMoveLog = errors.New("game has no recorded moves")

type gameStore interface {
	GetByID(ctx context.Context, id int64) (*entity.GameRecord, error)
	Moves(ctx context.Context, gameID int64) ([]*entity.MoveRecord, error)
}

// Replay is a loaded game ready to be played back. It is played once.
type Replay struct {
	Record *entity.GameRecord
	Moves  []*entity.MoveRecord
	Game   *entity.Game
}

// Step is the snapshot emitted after each replayed move.
type Step struct {
	MoveNumber      int                 `json:"move_number"`
	X               int                 `json:"x"`
	Y               int                 `json:"y"`
	Outcome         entity.RevealResult `json:"outcome"`
	RecordedOutcome string              `json:"recorded_outcome"`
	Game            *entity.GameView    `json:"game"`
}

type Result struct {
	GameID         int64         `json:"game_id"`
	Status         entity.Status `json:"status"`
	Outcome        string        `json:"outcome"`
	RecordedStatus string        `json:"recorded_status"`
	StepsPlayed    int           `json:"steps_played"`
	Matches        bool          `json:"matches"`
}

// Driver rebuilds stored games and plays their move logs back in order.
// Flags are not part of a move log and are never replayed.
type Driver struct {
	logger *slog.Logger
	store  gameStore
	pace   time.Duration
}

func NewDriver(logger *slog.Logger, store gameStore, pace time.Duration) *Driver {
	return &Driver{
		logger: logger.With("component", "replay"),
		store:  store,
		pace:   pace,
	}
}

// Load fetches a record and its moves and restores the game from the stored
// mine layout. Nothing is built when the record cannot be replayed.
func (that *Driver) Load(ctx context.Context, gameID int64) (*Replay, error) {
	if that.store == nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrReplayUnavailable, apperror.ErrPersistenceDisabled)
	}

	record, err := that.store.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrReplayUnavailable, err)
	}

	moves, err := that.store.Moves(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrReplayUnavailable, err)
	}

	if len(moves) == 0 {
		return nil, fmt.Errorf("%w: game %d: %w", apperror.ErrReplayUnavailable, gameID, errEmptyMoveLog)
	}

	moves = slices.Clone(moves)
	slices.SortFunc(moves, func(a, b *entity.MoveRecord) int {
		return a.MoveNumber - b.MoveNumber
	})

	for _, move := range moves {
		if move.X < 0 || move.X >= record.Size || move.Y < 0 || move.Y >= record.Size {
			return nil, fmt.Errorf("%w: move %d at (%d,%d) is outside a %dx%d board",
				apperror.ErrReplayUnavailable, move.MoveNumber, move.X, move.Y, record.Size, record.Size)
		}
	}

	game, err := minesweeper.RestoreGame(record.Size, record.Mines, record.Player, record.MinePositions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrReplayUnavailable, err)
	}

	return &Replay{
		Record: record,
		Moves:  moves,
		Game:   game,
	}, nil
}

// Start loads the game and plays it back, see Run.
func (that *Driver) Start(ctx context.Context, gameID int64, onStep func(Step)) (*Result, error) {
	loaded, err := that.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return that.Run(ctx, loaded, onStep)
}

// Run reveals the recorded moves one by one, waiting the configured pace
// between them, and calls onStep after each. It stops once the game ends and
// returns ctx.Err() if the context is cancelled first.
func (that *Driver) Run(ctx context.Context, loaded *Replay, onStep func(Step)) (*Result, error) {
	log := that.logger.With("method", "Run", "game_id", loaded.Record.ID)

	var tick <-chan time.Time
	if that.pace > 0 {
		ticker := time.NewTicker(that.pace)
		defer ticker.Stop()

		tick = ticker.C
	}

	game := loaded.Game
	steps := 0
	consistent := true

	for i, move := range loaded.Moves {
		if game.IsTerminal() {
			break
		}

		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-tick:
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := minesweeper.Reveal(game, move.X, move.Y)
		steps++

		if string(outcome) != move.Outcome {
			consistent = false
			log.Warn("replayed move differs from log",
				"move", move.MoveNumber, "recorded", move.Outcome, "replayed", outcome)
		}

		if onStep != nil {
			onStep(Step{
				MoveNumber:      move.MoveNumber,
				X:               move.X,
				Y:               move.Y,
				Outcome:         outcome,
				RecordedOutcome: move.Outcome,
				Game:            game.View(),
			})
		}
	}

	result := &Result{
		GameID:         loaded.Record.ID,
		Status:         game.Status,
		Outcome:        outcomeOf(game),
		RecordedStatus: loaded.Record.Status,
		StepsPlayed:    steps,
	}
	result.Matches = consistent && result.Outcome == result.RecordedStatus

	log.Info("replay finished", "status", result.Status, "steps", steps, "matches", result.Matches)

	return result, nil
}

func outcomeOf(game *entity.Game) string {
	if !game.IsTerminal() {
		return ""
	}

	return game.RecordStatus()
}
