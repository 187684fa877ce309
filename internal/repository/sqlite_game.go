package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
)

const (
	tableGames = "games"
	tableMoves = "moves"
)

var gameColumns = []string{"id", "date", "player", "size", "mines", "mine_positions", "status", "moves_count"}

type gameRow struct {
	ID            int64  `db:"id"`
	Date          int64  `db:"date"`
	Player        string `db:"player"`
	Size          int    `db:"size"`
	Mines         int    `db:"mines"`
	MinePositions string `db:"mine_positions"`
	Status        string `db:"status"`
	MovesCount    int    `db:"moves_count"`
}

type moveRow struct {
	ID         int64  `db:"id"`
	GameID     int64  `db:"game_id"`
	MoveNumber int    `db:"move_number"`
	X          int    `db:"x"`
	Y          int    `db:"y"`
	Outcome    string `db:"outcome"`
}

type SQLiteGameRepository struct {
	conn *sqlx.DB
	now  func() time.Time
}

func NewSQLiteGameRepository(conn *sqlx.DB) *SQLiteGameRepository {
	return &SQLiteGameRepository{
		conn: conn,
		now:  time.Now,
	}
}

func (that *SQLiteGameRepository) Save(ctx context.Context, record *entity.NewGameRecord) (int64, error) {
	positions, err := json.Marshal(record.MinePositions)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal mine positions: %w", err)
	}

	var gameID int64

	err = that.runInTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := sq.Insert(tableGames).
			Columns("date", "player", "size", "mines", "mine_positions", "status", "moves_count").
			Values(that.now().UnixNano(), record.Player, record.Size, record.Mines, string(positions), record.Status, len(record.Moves)).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build game insert: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert game: %w", err)
		}

		gameID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get game id: %w", err)
		}

		if len(record.Moves) == 0 {
			return nil
		}

		insert := sq.Insert(tableMoves).Columns("game_id", "move_number", "x", "y", "outcome")
		for i, move := range record.Moves {
			insert = insert.Values(gameID, i+1, move.X, move.Y, move.Outcome)
		}

		query, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build moves insert: %w", err)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert moves: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return gameID, nil
}

func (that *SQLiteGameRepository) GetByID(ctx context.Context, id int64) (*entity.GameRecord, error) {
	query, args, err := sq.Select(gameColumns...).From(tableGames).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build game query: %w", err)
	}

	var row gameRow
	err = that.conn.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return row.toEntity()
}

func (that *SQLiteGameRepository) List(ctx context.Context) ([]*entity.GameRecord, error) {
	return that.selectGames(ctx, sq.Select(gameColumns...).From(tableGames))
}

func (that *SQLiteGameRepository) ListByPlayer(ctx context.Context, player string) ([]*entity.GameRecord, error) {
	return that.selectGames(ctx, sq.Select(gameColumns...).From(tableGames).Where(sq.Eq{"player": player}))
}

func (that *SQLiteGameRepository) Moves(ctx context.Context, gameID int64) ([]*entity.MoveRecord, error) {
	query, args, err := sq.Select("id", "game_id", "move_number", "x", "y", "outcome").
		From(tableMoves).
		Where(sq.Eq{"game_id": gameID}).
		OrderBy("move_number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build moves query: %w", err)
	}

	var rows []moveRow
	if err = that.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}

	moves := make([]*entity.MoveRecord, 0, len(rows))
	for _, row := range rows {
		moves = append(moves, &entity.MoveRecord{
			ID:         row.ID,
			GameID:     row.GameID,
			MoveNumber: row.MoveNumber,
			X:          row.X,
			Y:          row.Y,
			Outcome:    row.Outcome,
		})
	}

	return moves, nil
}

func (that *SQLiteGameRepository) selectGames(ctx context.Context, builder sq.SelectBuilder) ([]*entity.GameRecord, error) {
	query, args, err := builder.OrderBy("date DESC", "id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build games query: %w", err)
	}

	var rows []gameRow
	if err = that.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	games := make([]*entity.GameRecord, 0, len(rows))
	for _, row := range rows {
		game, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}

	return games, nil
}

// runInTx commits when fn succeeds and rolls back on error or panic.
func (that *SQLiteGameRepository) runInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := that.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (that gameRow) toEntity() (*entity.GameRecord, error) {
	var positions []entity.Coordinate
	if err := json.Unmarshal([]byte(that.MinePositions), &positions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mine positions of game %d: %w", that.ID, err)
	}

	return &entity.GameRecord{
		ID:            that.ID,
		Date:          time.Unix(0, that.Date).UTC(),
		Player:        that.Player,
		Size:          that.Size,
		Mines:         that.Mines,
		MinePositions: positions,
		Status:        that.Status,
		MovesCount:    that.MovesCount,
	}, nil
}
