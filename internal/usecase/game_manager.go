package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/minesweeper-backend/internal/apperror"
	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
	"github.com/rocketscienceinc/minesweeper-backend/internal/minesweeper"
)

type gameRepo interface {
	Save(ctx context.Context, record *entity.NewGameRecord) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.GameRecord, error)
	List(ctx context.Context) ([]*entity.GameRecord, error)
	ListByPlayer(ctx context.Context, player string) ([]*entity.GameRecord, error)
	Moves(ctx context.Context, gameID int64) ([]*entity.MoveRecord, error)
}

// TurnResult is what a reveal hands back to the caller. SavedGameID is set on
// the reveal that finished the game when the record was stored.
type TurnResult struct {
	Outcome     entity.RevealResult `json:"outcome"`
	Game        *entity.GameView    `json:"game"`
	SavedGameID int64               `json:"saved_game_id,omitempty"`
}

type session struct {
	mu    sync.Mutex
	game  *entity.Game
	moves []entity.Move
	saved bool
}

// GameManager owns the live game of every session and writes finished games
// to the repository. A nil repository disables persistence but not play.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
	maxSize  int
	rnd      minesweeper.RandomSource

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, maxSize int) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,
		maxSize:  maxSize,
		sessions: make(map[string]*session),
	}
}

func (that *GameManager) PersistenceEnabled() bool {
	return that.gameRepo != nil
}

// NewGame starts a game for the session, replacing whatever it was playing.
// An empty session id opens a new session; the id in use is returned.
func (that *GameManager) NewGame(_ context.Context, sessionID string, size, minesCount int, playerName string) (string, *entity.GameView, error) {
	if that.maxSize > 0 && size > that.maxSize {
		return "", nil, fmt.Errorf("%w: size %d exceeds %d", apperror.ErrInvalidBoard, size, that.maxSize)
	}

	game, err := minesweeper.NewGame(size, minesCount, playerName, that.rnd)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create game: %w", err)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	that.mu.Lock()
	that.sessions[sessionID] = &session{game: game}
	that.mu.Unlock()

	that.logger.Debug("game started", "session", sessionID, "size", size, "mines", minesCount)

	return sessionID, game.View(), nil
}

// Reveal applies a reveal to the session's game. When the reveal ends the
// game the record is saved once; a failed save is reported with the result.
// A finished game answers with a no-op and ErrGameFinished.
func (that *GameManager) Reveal(ctx context.Context, sessionID string, x, y int) (*TurnResult, error) {
	current, err := that.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	current.mu.Lock()
	defer current.mu.Unlock()

	if err = current.game.ConfirmActive(); err != nil {
		return &TurnResult{Outcome: entity.RevealNoOp, Game: current.game.View()}, err
	}

	outcome := minesweeper.Reveal(current.game, x, y)
	if outcome == entity.RevealNoOp {
		return &TurnResult{Outcome: outcome, Game: current.game.View()}, nil
	}

	current.moves = append(current.moves, entity.Move{X: x, Y: y, Outcome: string(outcome)})

	result := &TurnResult{Outcome: outcome, Game: current.game.View()}

	if !current.game.IsTerminal() || current.saved {
		return result, nil
	}

	current.saved = true

	id, err := that.saveGame(ctx, current)
	if err != nil {
		return result, err
	}

	result.SavedGameID = id

	return result, nil
}

func (that *GameManager) ToggleFlag(_ context.Context, sessionID string, x, y int) (entity.FlagResult, *entity.GameView, error) {
	current, err := that.getSession(sessionID)
	if err != nil {
		return entity.FlagNoOp, nil, err
	}

	current.mu.Lock()
	defer current.mu.Unlock()

	if err = current.game.ConfirmActive(); err != nil {
		return entity.FlagNoOp, current.game.View(), err
	}

	result := minesweeper.ToggleFlag(current.game, x, y)

	return result, current.game.View(), nil
}

func (that *GameManager) Game(sessionID string) (*entity.GameView, error) {
	current, err := that.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	current.mu.Lock()
	defer current.mu.Unlock()

	return current.game.View(), nil
}

// EndSession forgets the session. Unsaved games are dropped.
func (that *GameManager) EndSession(sessionID string) {
	that.mu.Lock()
	delete(that.sessions, sessionID)
	that.mu.Unlock()
}

func (that *GameManager) History(ctx context.Context) ([]*entity.GameRecord, error) {
	if !that.PersistenceEnabled() {
		return nil, apperror.ErrPersistenceDisabled
	}

	games, err := that.gameRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	return games, nil
}

func (that *GameManager) PlayerHistory(ctx context.Context, player string) ([]*entity.GameRecord, error) {
	if !that.PersistenceEnabled() {
		return nil, apperror.ErrPersistenceDisabled
	}

	games, err := that.gameRepo.ListByPlayer(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to list games of player: %w", err)
	}

	return games, nil
}

func (that *GameManager) GameRecord(ctx context.Context, id int64) (*entity.GameRecord, error) {
	if !that.PersistenceEnabled() {
		return nil, apperror.ErrPersistenceDisabled
	}

	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *GameManager) Moves(ctx context.Context, gameID int64) ([]*entity.MoveRecord, error) {
	if !that.PersistenceEnabled() {
		return nil, apperror.ErrPersistenceDisabled
	}

	moves, err := that.gameRepo.Moves(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}

	return moves, nil
}

func (that *GameManager) getSession(sessionID string) (*session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	current, ok := that.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, sessionID)
	}

	return current, nil
}

func (that *GameManager) saveGame(ctx context.Context, current *session) (int64, error) {
	log := that.logger.With("method", "saveGame")

	if !that.PersistenceEnabled() {
		log.Debug("persistence disabled, game not saved")
		return 0, nil
	}

	id, err := that.gameRepo.Save(ctx, entity.NewGameRecordFrom(current.game, current.moves))
	if err != nil {
		log.Error("failed to save game", "error", err)
		return 0, fmt.Errorf("%w: %w", apperror.ErrSaveFailed, err)
	}

	log.Info("game saved", "id", id, "status", current.game.RecordStatus(), "moves", len(current.moves))

	return id, nil
}
