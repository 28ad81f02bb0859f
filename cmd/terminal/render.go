package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
)

// renderer draws the board. The mark that fades on the next move is dimmed, a winning line is highlighted.
type renderer struct {
	out *termenv.Output
}

func newRenderer(out *termenv.Output) *renderer {
	return &renderer{out: out}
}

func (that *renderer) render(game entity.Game, timeLeft time.Duration) string {
	var b strings.Builder

	oldest := game.OldestMove()

	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			cell := row*3 + col
			cells[col] = that.cell(game, cell, cell == oldest)
		}

		b.WriteString(" " + strings.Join(cells, " | ") + "\n")
		if row < 2 {
			b.WriteString("---+---+---\n")
		}
	}

	b.WriteString(that.status(game, timeLeft))
	b.WriteString("\n")

	return b.String()
}

func (that *renderer) cell(game entity.Game, cell int, fading bool) string {
	mark := game.Board[cell]
	if mark == entity.EmptyCell {
		return that.out.String(strconv.Itoa(cell + 1)).Faint().String()
	}

	style := that.out.String(mark).Foreground(that.markColor(mark))

	switch {
	case slices.Contains(game.WinCombo, cell):
		style = style.Bold().Underline()
	case fading && game.IsOngoing():
		style = style.Faint()
	}

	return style.String()
}

func (that *renderer) markColor(mark string) termenv.Color {
	if mark == entity.PlayerX {
		return that.out.Color("6")
	}

	return that.out.Color("5")
}

func (that *renderer) status(game entity.Game, timeLeft time.Duration) string {
	if game.IsFinished() {
		text := fmt.Sprintf("%s wins", game.Winner)
		if game.Reason == entity.ReasonTimeout {
			text += " on time"
		}

		return that.out.String(text).Bold().String() + "  (r: new game, q: quit)"
	}

	text := fmt.Sprintf("%s to move", game.Turn)
	if timeLeft > 0 {
		text += fmt.Sprintf(", %.1fs left", timeLeft.Seconds())
	}

	return text + "  (1-9: play, r: new game, q: quit)"
}
