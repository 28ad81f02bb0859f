package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
)

// MakeTurn places the mark of the player to move on cell.
// The game is left untouched when an error is returned.
func MakeTurn(gameInstance *entity.Game, cell int) error {
	if err := validateMove(gameInstance, cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	gameInstance.Board[cell] = gameInstance.Turn
	gameInstance.Moves = append(gameInstance.Moves, cell)

	if len(gameInstance.Moves) > entity.MaxLiveMoves {
		oldest := gameInstance.Moves[0]
		gameInstance.Moves = append(gameInstance.Moves[:0:0], gameInstance.Moves[1:]...)
		gameInstance.Board[oldest] = entity.EmptyCell
	}

	gameInstance.Turn = entity.Opponent(gameInstance.Turn)
	updateGameStatus(gameInstance)

	return nil
}

// ApplyMove is MakeTurn without the error: an illegal move is ignored.
func ApplyMove(gameInstance *entity.Game, cell int) bool {
	return MakeTurn(gameInstance, cell) == nil
}

// Forfeit ends the game in favour of the player who is not to move.
func Forfeit(gameInstance *entity.Game) {
	if gameInstance.IsFinished() {
		return
	}

	gameInstance.Winner = entity.Opponent(gameInstance.Turn)
	gameInstance.WinCombo = nil
	gameInstance.Status = entity.StatusFinished
	gameInstance.Reason = entity.ReasonTimeout
}

// Reset returns the game to its opening position, keeping ID and settings.
func Reset(gameInstance *entity.Game) {
	gameInstance.Board = entity.Board{}
	gameInstance.Moves = []int{}
	gameInstance.Turn = entity.PlayerX
	gameInstance.Winner = ""
	gameInstance.WinCombo = nil
	gameInstance.Status = entity.StatusOngoing
	gameInstance.Reason = ""
}

// validateMove - checks if the move is valid.
func validateMove(gameInstance *entity.Game, cell int) error {
	if gameInstance.IsFinished() {
		return apperror.ErrGameFinished
	}

	if cell < 0 || cell >= len(gameInstance.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if gameInstance.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(gameInstance *entity.Game) {
	winner, combo := entity.DetectWinner(gameInstance.Board)
	if winner == "" {
		return
	}

	gameInstance.Winner = winner
	gameInstance.WinCombo = combo
	gameInstance.Status = entity.StatusFinished
	gameInstance.Reason = entity.ReasonLine
}
