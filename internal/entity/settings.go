package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/apperror"
)

const (
	EasyDifficulty   = 1
	MediumDifficulty = 2
	HardDifficulty   = 3
)

// Settings are the per-session knobs a client can change between games.
type Settings struct {
	BotEnabled    bool  `json:"bot_enabled"`
	BotPlaysFirst bool  `json:"bot_plays_first"`
	Difficulty    int   `json:"difficulty"`
	TimerEnabled  bool  `json:"timer_enabled"`
	MinTurnMs     int64 `json:"min_turn_ms"`
	MaxTurnMs     int64 `json:"max_turn_ms"`
}

func (that Settings) Validate() error {
	if that.Difficulty < EasyDifficulty || that.Difficulty > HardDifficulty {
		return fmt.Errorf("%w: difficulty %d", apperror.ErrInvalidSettings, that.Difficulty)
	}

	if that.TimerEnabled && (that.MinTurnMs <= 0 || that.MaxTurnMs < that.MinTurnMs) {
		return fmt.Errorf("%w: turn duration bounds %d..%d ms", apperror.ErrInvalidSettings, that.MinTurnMs, that.MaxTurnMs)
	}

	return nil
}

func (that Settings) MinTurnDuration() time.Duration {
	return time.Duration(that.MinTurnMs) * time.Millisecond
}

func (that Settings) MaxTurnDuration() time.Duration {
	return time.Duration(that.MaxTurnMs) * time.Millisecond
}

// BotMark is the mark the bot plays with: X moves first.
func (that Settings) BotMark() string {
	if that.BotPlaysFirst {
		return PlayerX
	}
	return PlayerO
}

func (that Settings) IsBotTurn(game *Game) bool {
	return that.BotEnabled && game.IsOngoing() && game.Turn == that.BotMark()
}
