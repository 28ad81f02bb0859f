// Package bot picks moves for the computer opponent.
//
// The heuristic is handcrafted rather than searched. Level 1 plays at random, level 2 takes an immediate win or
// blocks an immediate loss, and level 3 adds an opening book, a corner plan for the middle game and only trusts a
// win or block that survives the mark about to fade.
package bot

import (
	"math/rand/v2"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
)

const center = 4

var (
	corners = [4]int{0, 2, 6, 8}

	cornerEdges = map[int][2]int{
		0: {1, 3},
		2: {1, 5},
		6: {3, 7},
		8: {5, 7},
	}
)

// Chooser picks one element of a non-empty candidate list.
type Chooser interface {
	Choose(candidates []int) int
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(candidates []int) int

func (that ChooserFunc) Choose(candidates []int) int {
	return that(candidates)
}

// RandomChooser picks uniformly.
type RandomChooser struct{}

func (RandomChooser) Choose(candidates []int) int {
	return candidates[rand.IntN(len(candidates))] //nolint: gosec // it's ok
}

type Heuristic struct {
	chooser Chooser
}

func New(chooser Chooser) *Heuristic {
	if chooser == nil {
		chooser = RandomChooser{}
	}

	return &Heuristic{chooser: chooser}
}

// SelectMove returns the cell the bot plays. The second result is false when the game already has a winner or
// the board has no empty cell. Neither board nor moves are modified.
func (that *Heuristic) SelectMove(board entity.Board, moves []int, botFirst bool, difficulty int) (int, bool) {
	if winner, _ := entity.DetectWinner(board); winner != "" {
		return 0, false
	}

	available := emptyCells(board)
	if len(available) == 0 {
		return 0, false
	}

	difficulty = min(max(difficulty, entity.EasyDifficulty), entity.HardDifficulty)

	botMark := entity.PlayerO
	if botFirst {
		botMark = entity.PlayerX
	}

	if difficulty == entity.HardDifficulty {
		if cell, ok := that.openingMove(board, moves); ok {
			return cell, true
		}
	}

	if difficulty >= entity.MediumDifficulty {
		strict := difficulty == entity.HardDifficulty

		if cell, ok := findCompletingCell(board, moves, botMark, strict); ok {
			return cell, true
		}

		if cell, ok := findCompletingCell(board, moves, entity.Opponent(botMark), strict); ok {
			return cell, true
		}
	}

	if difficulty == entity.HardDifficulty && len(moves) == 4 {
		if cell, ok := openCorner(board); ok {
			return cell, true
		}
	}

	return that.chooser.Choose(available), true
}

// openingMove keys off the move count only.
func (that *Heuristic) openingMove(board entity.Board, moves []int) (int, bool) {
	freeCorners := emptyCorners(board)

	switch {
	case len(moves) == 0:
		return center, true
	case len(moves) == 1 && board[center] == entity.EmptyCell:
		return center, true
	case len(moves) == 1 && len(freeCorners) > 0:
		return that.chooser.Choose(freeCorners), true
	case len(moves) == 2 && len(freeCorners) == len(corners):
		return that.chooser.Choose(freeCorners), true
	}

	return 0, false
}

// findCompletingCell scans empty cells in index order for one where mark completes a line. In strict mode the
// line must also hold once the oldest mark has faded.
func findCompletingCell(board entity.Board, moves []int, mark string, strict bool) (int, bool) {
	for cell := range board {
		if board[cell] != entity.EmptyCell {
			continue
		}

		next := board
		next[cell] = mark

		if !completesLine(next, mark) {
			continue
		}

		if strict && !completesLine(afterFade(next, moves), mark) {
			continue
		}

		return cell, true
	}

	return 0, false
}

// afterFade clears the mark that leaves the board when the window overflows.
func afterFade(board entity.Board, moves []int) entity.Board {
	if len(moves) < entity.MaxLiveMoves {
		return board
	}

	board[moves[0]] = entity.EmptyCell

	return board
}

func completesLine(board entity.Board, mark string) bool {
	winner, _ := entity.DetectWinner(board)
	return winner == mark
}

// openCorner returns the first empty corner whose two neighbouring edges are empty.
func openCorner(board entity.Board) (int, bool) {
	for _, corner := range corners {
		if board[corner] != entity.EmptyCell {
			continue
		}

		edges := cornerEdges[corner]
		if board[edges[0]] == entity.EmptyCell && board[edges[1]] == entity.EmptyCell {
			return corner, true
		}
	}

	return 0, false
}

func emptyCells(board entity.Board) []int {
	cells := make([]int, 0, len(board))
	for i, mark := range board {
		if mark == entity.EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

func emptyCorners(board entity.Board) []int {
	cells := make([]int, 0, len(corners))
	for _, corner := range corners {
		if board[corner] == entity.EmptyCell {
			cells = append(cells, corner)
		}
	}

	return cells
}
