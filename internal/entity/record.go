package entity

import "time"

const (
	RecordStatusWin  = "win"
	RecordStatusLose = "lose"
)

// Move is one successful reveal made during live play.
type Move struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Outcome string `json:"outcome"`
}

// GameRecord is a finished game as persisted. Records are immutable.
type GameRecord struct {
	ID            int64        `json:"id"`
	Date          time.Time    `json:"date"`
	Player        string       `json:"player"`
	Size          int          `json:"size"`
	Mines         int          `json:"mines"`
	MinePositions []Coordinate `json:"mine_positions"`
	Status        string       `json:"status"`
	MovesCount    int          `json:"moves_count"`
}

type MoveRecord struct {
	ID         int64  `json:"id"`
	GameID     int64  `json:"game_id"`
	MoveNumber int    `json:"move_number"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Outcome    string `json:"outcome"`
}

// NewGameRecord is the input of a save: a finished game snapshot and its move log.
type NewGameRecord struct {
	Player        string
	Size          int
	Mines         int
	MinePositions []Coordinate
	Status        string
	Moves         []Move
}

func NewGameRecordFrom(game *Game, moves []Move) *NewGameRecord {
	positions := make([]Coordinate, len(game.MinePositions))
	copy(positions, game.MinePositions)

	log := make([]Move, len(moves))
	copy(log, moves)

	return &NewGameRecord{
		Player:        game.PlayerName,
		Size:          game.Size,
		Mines:         game.MinesCount,
		MinePositions: positions,
		Status:        game.RecordStatus(),
		Moves:         log,
	}
}
