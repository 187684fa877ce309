package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/minesweeper-backend/internal/apperror"
	"github.com/rocketscienceinc/minesweeper-backend/internal/entity"
	"github.com/rocketscienceinc/minesweeper-backend/internal/repository"
	"github.com/rocketscienceinc/minesweeper-backend/pkg/handlers"
)

type gameResponse struct {
	Game  *entity.GameRecord   `json:"game"`
	Moves []*entity.MoveRecord `json:"moves,omitempty"`
}

func (that *Server) listGames(w http.ResponseWriter, r *http.Request) {
	var (
		games []*entity.GameRecord
		err   error
	)

	if player := r.URL.Query().Get("player"); player != "" {
		games, err = that.history.PlayerHistory(r.Context(), player)
	} else {
		games, err = that.history.History(r.Context())
	}

	if err != nil {
		that.writeFailure(w, "listGames", err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, games)
}

func (that *Server) getGame(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGameID(w, r)
	if !ok {
		return
	}

	game, err := that.history.GameRecord(r.Context(), id)
	if err != nil {
		that.writeFailure(w, "getGame", err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, gameResponse{Game: game})
}

func (that *Server) getMoves(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGameID(w, r)
	if !ok {
		return
	}

	game, err := that.history.GameRecord(r.Context(), id)
	if err != nil {
		that.writeFailure(w, "getMoves", err)
		return
	}

	moves, err := that.history.Moves(r.Context(), id)
	if err != nil {
		that.writeFailure(w, "getMoves", err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, gameResponse{Game: game, Moves: moves})
}

func parseGameID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		handlers.WriteError(w, http.StatusBadRequest, "game id must be a positive integer")
		return 0, false
	}

	return id, true
}

func (that *Server) writeFailure(w http.ResponseWriter, method string, err error) {
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		handlers.WriteError(w, http.StatusNotFound, repository.ErrGameNotFound.Error())
	case errors.Is(err, apperror.ErrPersistenceDisabled):
		handlers.WriteError(w, http.StatusServiceUnavailable, apperror.ErrPersistenceDisabled.Error())
	default:
		that.logger.Error("request failed", "method", method, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
