// Package timer implements the per-turn countdown.
//
// A countdown starts from the maximum turn duration. Every Reset while it runs takes 100ms off the budget, never
// going below the minimum, so turns get faster as the game goes on. When the budget runs out the expiry callback
// fires once and the budget goes back to the maximum. The shortening lasts one game only: Cancel also goes back
// to the maximum, so a reset game never inherits the previous game's pace.
package timer

import (
	"sync"
	"time"
)

// ShrinkStep is taken off the budget on every Reset.
const ShrinkStep = 100 * time.Millisecond

type Countdown struct {
	mu sync.Mutex

	min time.Duration
	max time.Duration

	budget    time.Duration
	running   bool
	startedAt time.Time
	run       uint64
	timer     *time.Timer

	onExpire func(run uint64)
}

// New creates a stopped countdown. onExpire receives the run that expired; compare it with Run to drop
// expiries that raced with a Reset or Cancel.
func New(minDuration, maxDuration time.Duration, onExpire func(run uint64)) *Countdown {
	return &Countdown{
		min:      minDuration,
		max:      maxDuration,
		budget:   maxDuration,
		onExpire: onExpire,
	}
}

// Start arms the countdown with the current budget. It does nothing while already running.
func (that *Countdown) Start() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.running {
		return
	}

	that.run++
	that.armLocked()
}

// Reset shortens the budget and restarts the countdown. Any expiry in flight is invalidated even when the
// countdown is not running.
func (that *Countdown) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.run++
	if !that.running {
		return
	}

	that.timer.Stop()
	that.budget = max(that.min, that.budget-ShrinkStep)
	that.armLocked()
}

// Cancel stops the countdown and restores the full budget. The shortened budget is not kept for the next Start.
func (that *Countdown) Cancel() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.run++
	if that.timer != nil {
		that.timer.Stop()
	}

	that.running = false
	that.budget = that.max
}

func (that *Countdown) Running() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.running
}

// Run identifies the current arming; it changes on every Start, Reset and Cancel.
func (that *Countdown) Run() uint64 {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.run
}

func (that *Countdown) Budget() time.Duration {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.budget
}

// Remaining is the time left in the current run, or the full budget when stopped.
func (that *Countdown) Remaining() time.Duration {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.running {
		return that.budget
	}

	return max(0, that.budget-time.Since(that.startedAt))
}

func (that *Countdown) armLocked() {
	run := that.run

	that.running = true
	that.startedAt = time.Now()
	that.timer = time.AfterFunc(that.budget, func() {
		that.expire(run)
	})
}

func (that *Countdown) expire(run uint64) {
	that.mu.Lock()
	if run != that.run || !that.running {
		that.mu.Unlock()
		return
	}

	that.running = false
	that.budget = that.max
	onExpire := that.onExpire
	that.mu.Unlock()

	if onExpire != nil {
		onExpire(run)
	}
}
