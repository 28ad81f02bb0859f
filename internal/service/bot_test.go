package service

import (
	"testing"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/bot"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/tictactoe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstChoice() bot.Chooser {
	return bot.ChooserFunc(func(candidates []int) int { return candidates[0] })
}

func TestBotService_MakeTurn(t *testing.T) {
	t.Run("Bot playing first opens in the center", func(t *testing.T) {
		// Given: a new game where the hard bot plays X
		game := entity.NewGame("123", entity.Settings{BotEnabled: true, BotPlaysFirst: true, Difficulty: entity.HardDifficulty})
		botService := NewBotService(firstChoice())

		// When: the bot makes its turn
		cell, err := botService.MakeTurn(game)

		// Then: it took the center and passed the turn
		require.NoError(t, err)
		assert.Equal(t, 4, cell)
		assert.Equal(t, entity.PlayerX, game.Board[4])
		assert.Equal(t, entity.PlayerO, game.Turn)
		assert.Equal(t, []int{4}, game.Moves)
	})

	t.Run("Bot blocks the human", func(t *testing.T) {
		// Given: X (human) threatens column 0-3-6 and the medium bot plays O
		game := entity.NewGame("123", entity.Settings{BotEnabled: true, Difficulty: entity.MediumDifficulty})
		require.True(t, tictactoe.ApplyMove(game, 0))
		require.True(t, tictactoe.ApplyMove(game, 8))
		require.True(t, tictactoe.ApplyMove(game, 3))
		botService := NewBotService(firstChoice())

		// When: the bot makes its turn
		cell, err := botService.MakeTurn(game)

		// Then: it blocks at 6
		require.NoError(t, err)
		assert.Equal(t, 6, cell)
		assert.Equal(t, entity.PlayerO, game.Board[6])
	})

	t.Run("Error when it is not the bot's turn", func(t *testing.T) {
		// Given: a new game where the bot plays O
		game := entity.NewGame("123", entity.Settings{BotEnabled: true, Difficulty: entity.EasyDifficulty})
		botService := NewBotService(firstChoice())

		// When: the bot is asked to move on X's turn
		_, err := botService.MakeTurn(game)

		// Then: ErrNotYourTurn is returned and the board is untouched
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Empty(t, game.Moves)
	})

	t.Run("Error when the game is finished", func(t *testing.T) {
		// Given: a game X won by a line
		game := entity.NewGame("123", entity.Settings{BotEnabled: true, Difficulty: entity.EasyDifficulty})
		for _, cell := range []int{0, 3, 1, 4, 2} {
			require.True(t, tictactoe.ApplyMove(game, cell))
		}
		botService := NewBotService(firstChoice())

		// When: the bot is asked to move
		_, err := botService.MakeTurn(game)

		// Then: ErrGameFinished is returned
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}
