package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/session"
)

func plainOutput(buf *bytes.Buffer) *termenv.Output {
	return termenv.NewOutput(buf, termenv.WithProfile(termenv.Ascii))
}

func TestRenderer_Render(t *testing.T) {
	t.Run("Empty cells show their key", func(t *testing.T) {
		game := entity.NewGame("g", entity.Settings{Difficulty: entity.MediumDifficulty})

		got := newRenderer(plainOutput(&bytes.Buffer{})).render(*game, 0)

		assert.Equal(t, " 1 | 2 | 3\n---+---+---\n 4 | 5 | 6\n---+---+---\n 7 | 8 | 9\n"+
			"X to move  (1-9: play, r: new game, q: quit)\n", got)
	})

	t.Run("Marks, time left and the winner", func(t *testing.T) {
		game := entity.NewGame("g", entity.Settings{Difficulty: entity.MediumDifficulty})
		game.Board[4] = entity.PlayerX
		game.Board[0] = entity.PlayerO
		game.Moves = []int{4, 0}

		got := newRenderer(plainOutput(&bytes.Buffer{})).render(*game, 1500*time.Millisecond)

		assert.True(t, strings.HasPrefix(got, " O | 2 | 3\n"))
		assert.Contains(t, got, " 4 | X | 6\n")
		assert.Contains(t, got, "X to move, 1.5s left")

		game.Status = entity.StatusFinished
		game.Winner = entity.PlayerO
		game.Reason = entity.ReasonTimeout

		got = newRenderer(plainOutput(&bytes.Buffer{})).render(*game, 0)
		assert.Contains(t, got, "O wins on time")
	})
}

func TestPlay(t *testing.T) {
	// Given: A session against an instant bot
	sess, err := session.New("terminal", entity.Settings{BotEnabled: true, Difficulty: entity.EasyDifficulty})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	var buf bytes.Buffer
	input := strings.NewReader("5\nx\n5\nq\n3\n")

	// When: Playing the center, then garbage, then an occupied cell, then quitting
	err = play(sess, input, plainOutput(&buf))

	// Then: Input stops at q and errors are reported
	require.ErrorIs(t, err, errQuit)

	game := sess.Snapshot()
	assert.Equal(t, entity.PlayerX, game.Board[4])
	assert.Len(t, game.Moves, 2)
	assert.NotEqual(t, entity.PlayerX, game.Board[2])
}

func TestHandleLine(t *testing.T) {
	sess, err := session.New("terminal", entity.Settings{Difficulty: entity.EasyDifficulty})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	require.NoError(t, handleLine(sess, ""))
	require.ErrorIs(t, handleLine(sess, "0"), apperror.ErrInvalidCell)
	require.ErrorIs(t, handleLine(sess, "ten"), apperror.ErrInvalidCell)
	require.ErrorIs(t, handleLine(sess, "q"), errQuit)

	require.NoError(t, handleLine(sess, "1"))
	assert.Equal(t, entity.PlayerX, sess.Snapshot().Board[0])

	require.NoError(t, handleLine(sess, "r"))
	assert.Empty(t, sess.Snapshot().Moves)
}
