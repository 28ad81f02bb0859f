package entity

import "slices"

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"

	ReasonLine    = "line"
	ReasonTimeout = "timeout"

	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""
)

// MaxLiveMoves is the number of marks that stay on the board; placing one more removes the oldest.
const MaxLiveMoves = 6

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Board [9]string

type Game struct {
	ID       string   `json:"id"`
	Board    Board    `json:"board"`
	Moves    []int    `json:"moves"`
	Turn     string   `json:"player_turn"`
	Winner   string   `json:"winner"`
	WinCombo []int    `json:"win_combo,omitempty"`
	Status   string   `json:"status"`
	Reason   string   `json:"reason,omitempty"`
	Settings Settings `json:"settings"`
}

func NewGame(id string, settings Settings) *Game {
	return &Game{
		ID:       id,
		Board:    Board{},
		Moves:    []int{},
		Turn:     PlayerX,
		Status:   StatusOngoing,
		Settings: settings,
	}
}

// DetectWinner returns the mark and the line of the first completed combination in WinCombos order.
func DetectWinner(board Board) (string, []int) {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a, []int{combo[0], combo[1], combo[2]}
		}
	}

	return "", nil
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

// OldestMove returns the cell that will fade on the next accepted move, or -1 if the window is not full.
func (that *Game) OldestMove() int {
	if len(that.Moves) < MaxLiveMoves {
		return -1
	}
	return that.Moves[0]
}

// Clone returns a deep copy safe to hand out of a session.
func (that *Game) Clone() Game {
	clone := *that
	clone.Moves = slices.Clone(that.Moves)
	clone.WinCombo = slices.Clone(that.WinCombo)
	if clone.Moves == nil {
		clone.Moves = []int{}
	}

	return clone
}

func Opponent(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
