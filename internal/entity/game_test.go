package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectWinner(t *testing.T) {
	t.Run("Returns PlayerX and the row when Player X completes a row", func(t *testing.T) {
		// Given: a board where Player X holds the top row
		board := Board{
			PlayerX, PlayerX, PlayerX,
			PlayerO, PlayerO, EmptyCell,
			EmptyCell, EmptyCell, EmptyCell,
		}

		// When: detecting the winner
		mark, combo := DetectWinner(board)

		// Then: Player X wins with the first row
		assert.Equal(t, PlayerX, mark)
		assert.Equal(t, []int{0, 1, 2}, combo)
	})

	t.Run("Returns PlayerO on a diagonal", func(t *testing.T) {
		// Given: a board where Player O holds the anti-diagonal
		board := Board{
			PlayerX, PlayerX, PlayerO,
			EmptyCell, PlayerO, EmptyCell,
			PlayerO, EmptyCell, PlayerX,
		}

		// When: detecting the winner
		mark, combo := DetectWinner(board)

		// Then: Player O wins with the anti-diagonal
		assert.Equal(t, PlayerO, mark)
		assert.Equal(t, []int{2, 4, 6}, combo)
	})

	t.Run("Reports the first line in order when several lines are complete", func(t *testing.T) {
		// Given: a board where Player X completes column 0 and the main diagonal
		board := Board{
			PlayerX, PlayerO, PlayerO,
			PlayerX, PlayerX, EmptyCell,
			PlayerX, EmptyCell, PlayerX,
		}

		// When: detecting the winner
		mark, combo := DetectWinner(board)

		// Then: the column is reported because it comes first
		assert.Equal(t, PlayerX, mark)
		assert.Equal(t, []int{0, 3, 6}, combo)
	})

	t.Run("Returns nothing when no line is complete", func(t *testing.T) {
		// Given: a board without a complete line
		board := Board{
			PlayerX, PlayerO, EmptyCell,
			EmptyCell, PlayerX, EmptyCell,
			EmptyCell, EmptyCell, PlayerO,
		}

		// When: detecting the winner
		mark, combo := DetectWinner(board)

		// Then: there is no winner
		assert.Equal(t, EmptyCell, mark)
		assert.Nil(t, combo)
	})

	t.Run("Matches a brute force check on every board", func(t *testing.T) {
		marks := []string{EmptyCell, PlayerX, PlayerO}

		for code := 0; code < 19683; code++ {
			var board Board
			n := code
			for i := range board {
				board[i] = marks[n%3]
				n /= 3
			}

			hasLine := false
			for _, combo := range WinCombos {
				if board[combo[0]] != EmptyCell && board[combo[0]] == board[combo[1]] && board[combo[1]] == board[combo[2]] {
					hasLine = true
					break
				}
			}

			mark, _ := DetectWinner(board)
			require.Equal(t, hasLine, mark != EmptyCell, "board %v", board)
		}
	})
}

func TestGame_OldestMove(t *testing.T) {
	t.Run("Returns -1 while the window is not full", func(t *testing.T) {
		// Given: a game with five moves
		game := &Game{Moves: []int{0, 1, 2, 3, 4}}

		// Then: nothing is about to fade
		assert.Equal(t, -1, game.OldestMove())
	})

	t.Run("Returns the first move once six marks are on the board", func(t *testing.T) {
		// Given: a game with six moves
		game := &Game{Moves: []int{7, 1, 2, 3, 4, 5}}

		// Then: the first move fades next
		assert.Equal(t, 7, game.OldestMove())
	})
}

func TestGame_Clone(t *testing.T) {
	// Given: a finished game
	game := NewGame("123", Settings{Difficulty: HardDifficulty})
	game.Moves = []int{0, 1, 2}
	game.WinCombo = []int{0, 1, 2}

	// When: cloning and mutating the clone
	clone := game.Clone()
	clone.Moves[0] = 8
	clone.WinCombo[0] = 8

	// Then: the source game is untouched
	assert.Equal(t, []int{0, 1, 2}, game.Moves)
	assert.Equal(t, []int{0, 1, 2}, game.WinCombo)
}

func TestSettings_Validate(t *testing.T) {
	t.Run("Accepts every difficulty tier", func(t *testing.T) {
		for _, level := range []int{EasyDifficulty, MediumDifficulty, HardDifficulty} {
			settings := Settings{Difficulty: level}
			require.NoError(t, settings.Validate())
		}
	})

	t.Run("Rejects unknown difficulty", func(t *testing.T) {
		for _, level := range []int{0, 4, -1} {
			settings := Settings{Difficulty: level}
			require.Error(t, settings.Validate())
		}
	})

	t.Run("Rejects inverted turn duration bounds when the timer is on", func(t *testing.T) {
		// Given: settings with min above max
		settings := Settings{Difficulty: MediumDifficulty, TimerEnabled: true, MinTurnMs: 3000, MaxTurnMs: 1000}

		// Then: validation fails
		require.Error(t, settings.Validate())
	})

	t.Run("Ignores duration bounds when the timer is off", func(t *testing.T) {
		settings := Settings{Difficulty: MediumDifficulty, MinTurnMs: 3000, MaxTurnMs: 1000}
		require.NoError(t, settings.Validate())
	})
}

func TestSettings_BotMark(t *testing.T) {
	assert.Equal(t, PlayerX, Settings{BotPlaysFirst: true}.BotMark())
	assert.Equal(t, PlayerO, Settings{BotPlaysFirst: false}.BotMark())
}
