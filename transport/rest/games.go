package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
)

type turnRequest struct {
	Cell *int `json:"cell"`
}

type GameHandler struct {
	logger *slog.Logger
	uGame  uGame
}

func NewGameHandler(logger *slog.Logger, uGame uGame) *GameHandler {
	return &GameHandler{
		logger: logger.With("component", "restGameHandler"),
		uGame:  uGame,
	}
}

func (that *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.respondError(w, "GetGame", err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *GameHandler) MakeTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}

	game, err := that.uGame.MakeTurn(r.Context(), chi.URLParam(r, "id"), *req.Cell)
	if err != nil {
		that.respondError(w, "MakeTurn", err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *GameHandler) ResetGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.ResetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.respondError(w, "ResetGame", err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *GameHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings entity.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}

	game, err := that.uGame.UpdateSettings(r.Context(), chi.URLParam(r, "id"), settings)
	if err != nil {
		that.respondError(w, "UpdateSettings", err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *GameHandler) respondError(w http.ResponseWriter, method string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}
