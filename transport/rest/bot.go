package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
)

type botMoveRequest struct {
	Board      entity.Board `json:"board"`
	Moves      []int        `json:"moves"`
	BotFirst   bool         `json:"bot_first"`
	Difficulty int          `json:"difficulty"`
}

// Cell is null when the bot has nothing to play.
type botMoveResponse struct {
	Cell *int `json:"cell"`
}

// BotHandler evaluates a position without any session behind it.
type BotHandler struct {
	logger *slog.Logger
	bot    botService
}

func NewBotHandler(logger *slog.Logger, bot botService) *BotHandler {
	return &BotHandler{
		logger: logger.With("component", "restBotHandler"),
		bot:    bot,
	}
}

func (that *BotHandler) SelectMove(w http.ResponseWriter, r *http.Request) {
	var req botMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}

	settings := entity.Settings{
		BotEnabled:    true,
		BotPlaysFirst: req.BotFirst,
		Difficulty:    req.Difficulty,
	}

	game := entity.Game{
		Board:    req.Board,
		Moves:    req.Moves,
		Turn:     settings.BotMark(),
		Status:   entity.StatusOngoing,
		Settings: settings,
	}

	cell, err := that.bot.SelectMove(&game)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, botMoveResponse{Cell: &cell})
	case errors.Is(err, apperror.ErrNoAvailableMoves):
		writeJSON(w, http.StatusOK, botMoveResponse{})
	default:
		that.logger.Error("failed to select bot move", "error", err)
		writeError(w, err)
	}
}

func (that botMoveRequest) valid() bool {
	for _, mark := range that.Board {
		if mark != entity.EmptyCell && mark != entity.PlayerX && mark != entity.PlayerO {
			return false
		}
	}

	for _, cell := range that.Moves {
		if cell < 0 || cell >= len(that.Board) {
			return false
		}
	}

	return true
}
