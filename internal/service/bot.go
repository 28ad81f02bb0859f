package service

import (
	"fmt"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/bot"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/tictactoe"
)

type BotService interface {
	SelectMove(game *entity.Game) (int, error)
	MakeTurn(game *entity.Game) (int, error)
}

type botService struct {
	heuristic *bot.Heuristic
}

func NewBotService(chooser bot.Chooser) BotService {
	return &botService{
		heuristic: bot.New(chooser),
	}
}

// SelectMove picks the bot's cell from the game's settings without touching the game.
func (that *botService) SelectMove(game *entity.Game) (int, error) {
	if game.IsFinished() {
		return 0, apperror.ErrGameFinished
	}

	if game.Turn != game.Settings.BotMark() {
		return 0, apperror.ErrNotYourTurn
	}

	cell, ok := that.heuristic.SelectMove(game.Board, game.Moves, game.Settings.BotPlaysFirst, game.Settings.Difficulty)
	if !ok {
		return 0, apperror.ErrNoAvailableMoves
	}

	return cell, nil
}

func (that *botService) MakeTurn(game *entity.Game) (int, error) {
	cell, err := that.SelectMove(game)
	if err != nil {
		return 0, fmt.Errorf("bot failed to select move: %w", err)
	}

	if err = tictactoe.MakeTurn(game, cell); err != nil {
		return 0, fmt.Errorf("bot failed to make turn: %w", err)
	}

	return cell, nil
}
