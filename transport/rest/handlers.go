package rest

import (
	"encoding/json"
	"net/http"

	"github.com/rocketscienceinc/megattt-backend/internal/entity"
)

type stateResponse struct {
	entity.GameState
	Board []string `json:"board"`
}

func (that *Server) stateHandler(w http.ResponseWriter, _ *http.Request) {
	state := that.uGame.State()

	that.writeJSON(w, &stateResponse{
		GameState: state,
		Board:     state.Board.Rows(),
	})
}

func (that *Server) scoresHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, that.uGame.Leaderboard())
}

func (that *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	history, err := that.uGame.History(r.Context())
	if err != nil {
		that.logger.Error("failed to get score history", "method", "historyHandler", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, history)
}

func (that *Server) writeJSON(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		that.logger.Error("failed to marshal response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(data); err != nil {
		that.logger.Warn("failed to write response", "error", err)
	}
}
