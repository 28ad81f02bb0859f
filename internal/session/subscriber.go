package session

import (
	"sync"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
)

type subscriber struct {
	ch        chan entity.Game
	closeOnce sync.Once
}

func (that *subscriber) close() {
	that.closeOnce.Do(func() { close(that.ch) })
}

// send never blocks: a slow reader only ever sees the latest state.
func (that *subscriber) send(game entity.Game) {
	select {
	case that.ch <- game:
		return
	default:
	}

	select {
	case <-that.ch:
	default:
	}

	select {
	case that.ch <- game:
	default:
	}
}

// Subscribe returns a channel receiving a snapshot after every state change. The channel is closed by the
// returned cancel function or when the session closes.
func (that *Session) Subscribe() (<-chan entity.Game, func()) {
	sub := &subscriber{ch: make(chan entity.Game, 1)}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		sub.close()
		return sub.ch, func() {}
	}

	that.subscribers[sub] = struct{}{}

	return sub.ch, func() {
		that.mu.Lock()
		delete(that.subscribers, sub)
		that.mu.Unlock()

		sub.close()
	}
}

func (that *Session) publishLocked() {
	for sub := range that.subscribers {
		sub.send(that.game.Clone())
	}
}
