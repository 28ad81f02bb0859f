// Package session runs one game of blinking tic-tac-toe for one client.
//
// A Session is a single actor: every state change happens under its mutex, including the deferred bot move and
// the turn countdown expiry which arrive from timer goroutines. Work scheduled for an older state carries the
// generation it was scheduled in and is dropped when the generation has moved on.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/service"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/tictactoe"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/timer"
)

var ErrSessionClosed = errors.New("session is closed")

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(that *Session) {
		that.logger = logger
	}
}

func WithBotService(botService service.BotService) Option {
	return func(that *Session) {
		that.botService = botService
	}
}

// WithBotDelay sets how long the bot waits before its move lands. Zero plays the bot synchronously.
func WithBotDelay(delay time.Duration) Option {
	return func(that *Session) {
		that.botDelay = delay
	}
}

type Session struct {
	mu sync.Mutex

	id         string
	logger     *slog.Logger
	botService service.BotService
	botDelay   time.Duration

	game       *entity.Game
	countdown  *timer.Countdown
	generation uint64
	pending    *time.Timer
	closed     bool

	subscribers map[*subscriber]struct{}
}

func New(id string, settings entity.Settings, opts ...Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	that := &Session{
		id:          id,
		logger:      slog.Default(),
		game:        entity.NewGame(id, settings),
		subscribers: make(map[*subscriber]struct{}),
	}

	for _, opt := range opts {
		opt(that)
	}

	if that.botService == nil {
		that.botService = service.NewBotService(nil)
	}

	that.logger = that.logger.With("component", "session", "sessionID", id)

	that.mu.Lock()
	defer that.mu.Unlock()

	that.rebuildCountdownLocked()
	that.scheduleBotLocked()

	return that, nil
}

func (that *Session) ID() string {
	return that.id
}

// Move plays cell for the human whose turn it is.
func (that *Session) Move(cell int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return ErrSessionClosed
	}

	if that.game.Settings.IsBotTurn(that.game) {
		return apperror.ErrNotYourTurn
	}

	if err := tictactoe.MakeTurn(that.game, cell); err != nil {
		return fmt.Errorf("failed to make turn: %w", err)
	}

	if that.countdown != nil {
		that.countdown.Start()
	}

	that.afterTurnLocked()
	that.scheduleBotLocked()
	that.publishLocked()

	return nil
}

// Reset starts a new game with the same settings. A bot move still pending from the old game is dropped.
func (that *Session) Reset() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return ErrSessionClosed
	}

	that.resetLocked()
	that.publishLocked()

	return nil
}

// Configure replaces the settings and resets the game.
func (that *Session) Configure(settings entity.Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("failed to configure session: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return ErrSessionClosed
	}

	that.game.Settings = settings
	that.rebuildCountdownLocked()
	that.resetLocked()
	that.publishLocked()

	return nil
}

// Restore loads a saved game into the session. The countdown starts stopped.
func (that *Session) Restore(game entity.Game) error {
	if err := game.Settings.Validate(); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return ErrSessionClosed
	}

	that.discardPendingLocked()

	restored := game.Clone()
	restored.ID = that.id
	that.game = &restored

	that.rebuildCountdownLocked()
	that.scheduleBotLocked()
	that.publishLocked()

	return nil
}

func (that *Session) Snapshot() entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.Clone()
}

func (that *Session) Settings() entity.Settings {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.Settings
}

// TimeLeft reports the remaining turn time, zero when the timer is off.
func (that *Session) TimeLeft() time.Duration {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.countdown == nil {
		return 0
	}

	return that.countdown.Remaining()
}

// Close stops timers and closes every subscription.
func (that *Session) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	that.discardPendingLocked()

	if that.countdown != nil {
		that.countdown.Cancel()
	}

	for sub := range that.subscribers {
		delete(that.subscribers, sub)
		sub.close()
	}
}

func (that *Session) resetLocked() {
	that.discardPendingLocked()

	if that.countdown != nil {
		that.countdown.Cancel()
	}

	tictactoe.Reset(that.game)
	that.scheduleBotLocked()
}

// afterTurnLocked keeps the countdown in step with an accepted move.
func (that *Session) afterTurnLocked() {
	if that.countdown == nil {
		return
	}

	if that.game.IsFinished() {
		that.countdown.Cancel()
		return
	}

	that.countdown.Reset()
}

func (that *Session) scheduleBotLocked() {
	if !that.game.Settings.IsBotTurn(that.game) {
		return
	}

	if that.botDelay <= 0 {
		that.playBotLocked()
		return
	}

	generation := that.generation
	that.pending = time.AfterFunc(that.botDelay, func() {
		that.playBot(generation)
	})
}

func (that *Session) playBot(generation uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || generation != that.generation {
		that.logger.Debug("discarding stale bot move", "generation", generation)
		return
	}

	that.pending = nil
	if that.playBotLocked() {
		that.publishLocked()
	}
}

func (that *Session) playBotLocked() bool {
	log := that.logger.With("method", "playBot")

	if !that.game.Settings.IsBotTurn(that.game) {
		return false
	}

	cell, err := that.botService.MakeTurn(that.game)
	if err != nil {
		log.Error("bot failed to make turn", "error", err)
		return false
	}

	log.Debug("bot moved", "cell", cell)
	that.afterTurnLocked()

	return true
}

func (that *Session) discardPendingLocked() {
	that.generation++

	if that.pending != nil {
		that.pending.Stop()
		that.pending = nil
	}
}

func (that *Session) rebuildCountdownLocked() {
	if that.countdown != nil {
		that.countdown.Cancel()
		that.countdown = nil
	}

	settings := that.game.Settings
	if !settings.TimerEnabled {
		return
	}

	var countdown *timer.Countdown
	countdown = timer.New(settings.MinTurnDuration(), settings.MaxTurnDuration(), func(run uint64) {
		that.handleTimeout(countdown, run)
	})
	that.countdown = countdown
}

// handleTimeout forfeits the game for the player to move.
func (that *Session) handleTimeout(countdown *timer.Countdown, run uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || that.countdown != countdown || countdown.Run() != run || that.game.IsFinished() {
		return
	}

	that.logger.Info("turn timed out", "loser", that.game.Turn)

	that.discardPendingLocked()
	tictactoe.Forfeit(that.game)
	that.publishLocked()
}
