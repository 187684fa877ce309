package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
)

const (
	keyGameSeq     = "games:seq"
	keyMoveSeq     = "moves:seq"
	keyGamesByDate = "games:by_date"
)

func gameKey(id int64) string {
	return "game:" + strconv.FormatInt(id, 10)
}

func movesKey(gameID int64) string {
	return "game:" + strconv.FormatInt(gameID, 10) + ":moves"
}

func playerGamesKey(player string) string {
	return "games:by_player:" + player
}

// indexMember pads the id so that equal dates fall back to id order.
func indexMember(id int64) string {
	return fmt.Sprintf("%020d", id)
}

type RedisGameRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisGameRepository(client *redis.Client) *RedisGameRepository {
	return &RedisGameRepository{
		client: client,
		now:    time.Now,
	}
}

// Save allocates ids with INCR and writes the record, the move list and both
// indices in a single MULTI/EXEC block.
func (that *RedisGameRepository) Save(ctx context.Context, record *entity.NewGameRecord) (int64, error) {
	gameID, err := that.client.Incr(ctx, keyGameSeq).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate game id: %w", err)
	}

	var firstMoveID int64
	if len(record.Moves) > 0 {
		lastMoveID, err := that.client.IncrBy(ctx, keyMoveSeq, int64(len(record.Moves))).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to allocate move ids: %w", err)
		}
		firstMoveID = lastMoveID - int64(len(record.Moves)) + 1
	}

	date := that.now().UTC()
	game := entity.GameRecord{
		ID:            gameID,
		Date:          date,
		Player:        record.Player,
		Size:          record.Size,
		Mines:         record.Mines,
		MinePositions: record.MinePositions,
		Status:        record.Status,
		MovesCount:    len(record.Moves),
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return 0, fmt.Errorf("could not marshal game: %w", err)
	}

	movesJSON := make([]interface{}, 0, len(record.Moves))
	for i, move := range record.Moves {
		moveJSON, err := json.Marshal(entity.MoveRecord{
			ID:         firstMoveID + int64(i),
			GameID:     gameID,
			MoveNumber: i + 1,
			X:          move.X,
			Y:          move.Y,
			Outcome:    move.Outcome,
		})
		if err != nil {
			return 0, fmt.Errorf("could not marshal move: %w", err)
		}
		movesJSON = append(movesJSON, moveJSON)
	}

	member := redis.Z{Score: float64(date.UnixMicro()), Member: indexMember(gameID)}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(gameID), gameJSON, 0)
		if len(movesJSON) > 0 {
			pipe.RPush(ctx, movesKey(gameID), movesJSON...)
		}
		pipe.ZAdd(ctx, keyGamesByDate, member)
		pipe.ZAdd(ctx, playerGamesKey(record.Player), member)

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save game: %w", err)
	}

	return gameID, nil
}

func (that *RedisGameRepository) GetByID(ctx context.Context, id int64) (*entity.GameRecord, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var game entity.GameRecord
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

func (that *RedisGameRepository) List(ctx context.Context) ([]*entity.GameRecord, error) {
	return that.listIndex(ctx, keyGamesByDate)
}

func (that *RedisGameRepository) ListByPlayer(ctx context.Context, player string) ([]*entity.GameRecord, error) {
	return that.listIndex(ctx, playerGamesKey(player))
}

func (that *RedisGameRepository) Moves(ctx context.Context, gameID int64) ([]*entity.MoveRecord, error) {
	response, err := that.client.LRange(ctx, movesKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}

	moves := make([]*entity.MoveRecord, 0, len(response))
	for _, item := range response {
		var move entity.MoveRecord
		if err = json.Unmarshal([]byte(item), &move); err != nil {
			return nil, fmt.Errorf("failed to unmarshal move: %w", err)
		}
		moves = append(moves, &move)
	}

	slices.SortFunc(moves, func(a, b *entity.MoveRecord) int {
		return a.MoveNumber - b.MoveNumber
	})

	return moves, nil
}

func (that *RedisGameRepository) listIndex(ctx context.Context, index string) ([]*entity.GameRecord, error) {
	members, err := that.client.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read games index: %w", err)
	}

	if len(members) == 0 {
		return []*entity.GameRecord{}, nil
	}

	keys := make([]string, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid games index member %q: %w", member, err)
		}
		keys = append(keys, gameKey(id))
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	games := make([]*entity.GameRecord, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var game entity.GameRecord
		if err = json.Unmarshal([]byte(raw), &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game: %w", err)
		}
		games = append(games, &game)
	}

	return games, nil
}
