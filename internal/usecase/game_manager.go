package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/service"
	"github.com/rocketscienceinc/blinktactoe-backend/internal/session"
)

const saveTimeout = 5 * time.Second

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

// liveSession is registered before it is opened; ready is closed once session or err is set.
// clients and lastUsed are guarded by the manager mutex.
type liveSession struct {
	ready   chan struct{}
	session *session.Session
	err     error
	saved   chan struct{}

	clients  int
	lastUsed time.Time
}

func (that *liveSession) opened() bool {
	select {
	case <-that.ready:
		return that.session != nil
	default:
		return false
	}
}

// GameManager keeps one live session per client and mirrors every change into the game repository, so a client
// that reconnects within the session TTL finds its game where it left it. Sessions nobody touched for the idle
// TTL are closed and forgotten.
type GameManager struct {
	logger     *slog.Logger
	gameRepo   gameRepo
	botService service.BotService
	defaults   entity.Settings
	botDelay   time.Duration
	idleTTL    time.Duration
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewGameManager creates a manager. An idleTTL of zero keeps sessions until they are closed explicitly.
func NewGameManager(
	logger *slog.Logger,
	gameRepo gameRepo,
	botService service.BotService,
	defaults entity.Settings,
	botDelay time.Duration,
	idleTTL time.Duration,
) *GameManager {
	return &GameManager{
		logger:     logger.With("component", "gameManager"),
		gameRepo:   gameRepo,
		botService: botService,
		defaults:   defaults,
		botDelay:   botDelay,
		idleTTL:    idleTTL,
		now:        time.Now,
		sessions:   make(map[string]*liveSession),
	}
}

// GetOrCreateSession returns the live session for id, restoring or creating it when needed.
// An empty id starts a session under a fresh id.
func (that *GameManager) GetOrCreateSession(ctx context.Context, id string) (*session.Session, error) {
	live, err := that.acquire(ctx, id)
	if err != nil {
		return nil, err
	}

	return live.session, nil
}

// AttachSession is GetOrCreateSession for long-lived clients. The session is not considered idle until the
// returned release function is called.
func (that *GameManager) AttachSession(ctx context.Context, id string) (*session.Session, func(), error) {
	live, err := that.acquire(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	that.mu.Lock()
	live.clients++
	that.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			that.mu.Lock()
			live.clients--
			live.lastUsed = that.now()
			that.mu.Unlock()
		})
	}

	return live.session, release, nil
}

func (that *GameManager) MakeTurn(ctx context.Context, id string, cell int) (entity.Game, error) {
	sess, err := that.GetOrCreateSession(ctx, id)
	if err != nil {
		return entity.Game{}, err
	}

	if err = sess.Move(cell); err != nil {
		return sess.Snapshot(), fmt.Errorf("failed make turn: %w", err)
	}

	return sess.Snapshot(), nil
}

func (that *GameManager) ResetGame(ctx context.Context, id string) (entity.Game, error) {
	sess, err := that.GetOrCreateSession(ctx, id)
	if err != nil {
		return entity.Game{}, err
	}

	if err = sess.Reset(); err != nil {
		return entity.Game{}, fmt.Errorf("failed to reset game: %w", err)
	}

	return sess.Snapshot(), nil
}

func (that *GameManager) UpdateSettings(ctx context.Context, id string, settings entity.Settings) (entity.Game, error) {
	sess, err := that.GetOrCreateSession(ctx, id)
	if err != nil {
		return entity.Game{}, err
	}

	if err = sess.Configure(settings); err != nil {
		return sess.Snapshot(), fmt.Errorf("failed to update settings: %w", err)
	}

	return sess.Snapshot(), nil
}

// GetGame reads the live session if there is one, the stored snapshot otherwise.
func (that *GameManager) GetGame(ctx context.Context, id string) (entity.Game, error) {
	that.mu.Lock()
	live, ok := that.sessions[id]
	if ok && live.opened() {
		live.lastUsed = that.now()
	}
	that.mu.Unlock()

	if ok && live.opened() {
		return live.session.Snapshot(), nil
	}

	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return entity.Game{}, fmt.Errorf("failed to get game: %w", err)
	}

	return *game, nil
}

// CloseSession stops the session and forgets its snapshot.
func (that *GameManager) CloseSession(ctx context.Context, id string) error {
	that.mu.Lock()
	live, ok := that.sessions[id]
	delete(that.sessions, id)
	that.mu.Unlock()

	if ok {
		<-live.ready
	}

	return that.retire(ctx, id, live)
}

// Sweep closes the sessions without clients that were idle for longer than the idle TTL and returns how many
// it closed.
func (that *GameManager) Sweep(ctx context.Context) int {
	if that.idleTTL <= 0 {
		return 0
	}

	log := that.logger.With("method", "Sweep")

	that.mu.Lock()
	deadline := that.now().Add(-that.idleTTL)
	idle := make(map[string]*liveSession)
	for id, live := range that.sessions {
		if live.opened() && live.clients == 0 && live.lastUsed.Before(deadline) {
			idle[id] = live
			delete(that.sessions, id)
		}
	}
	that.mu.Unlock()

	for id, live := range idle {
		if err := that.retire(ctx, id, live); err != nil {
			log.Error("failed to close idle session", "sessionID", id, "error", err)
		}
	}

	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is done.
func (that *GameManager) Run(ctx context.Context, interval time.Duration) {
	log := that.logger.With("method", "Run")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if closed := that.Sweep(ctx); closed > 0 {
				log.Info("closed idle sessions", "count", closed)
			}
		}
	}
}

// Shutdown stops every live session and waits for pending saves. Snapshots stay for reconnects.
func (that *GameManager) Shutdown() {
	that.mu.Lock()
	sessions := that.sessions
	that.sessions = make(map[string]*liveSession)
	that.mu.Unlock()

	for _, live := range sessions {
		<-live.ready
		that.stop(live)
	}
}

// acquire returns the opened session for id. Only the first caller for an id talks to the repository; the
// others wait for it without holding the manager mutex.
func (that *GameManager) acquire(ctx context.Context, id string) (*liveSession, error) {
	if id == "" {
		id = uuid.NewString()
	}

	that.mu.Lock()
	live, ok := that.sessions[id]
	if !ok {
		live = &liveSession{ready: make(chan struct{})}
		that.sessions[id] = live
	}
	live.lastUsed = that.now()
	that.mu.Unlock()

	if !ok {
		that.open(ctx, id, live)
	}

	select {
	case <-live.ready:
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to wait for session: %w", ctx.Err())
	}

	if live.err != nil {
		return nil, live.err
	}

	return live, nil
}

func (that *GameManager) open(ctx context.Context, id string, live *liveSession) {
	defer close(live.ready)

	sess, updates, err := that.startSession(ctx, id)
	if err != nil {
		live.err = err

		that.mu.Lock()
		if that.sessions[id] == live {
			delete(that.sessions, id)
		}
		that.mu.Unlock()

		return
	}

	live.session = sess
	live.saved = make(chan struct{})

	go that.persist(id, updates, live.saved)
}

// startSession builds the session, restores its stored game and saves the first snapshot. The subscription is
// taken before the snapshot so no change published in between is lost.
func (that *GameManager) startSession(ctx context.Context, id string) (*session.Session, <-chan entity.Game, error) {
	sess, err := session.New(id, that.defaults,
		session.WithLogger(that.logger),
		session.WithBotService(that.botService),
		session.WithBotDelay(that.botDelay),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	stored, err := that.gameRepo.GetByID(ctx, id)
	switch {
	case err == nil:
		if err = sess.Restore(*stored); err != nil {
			that.logger.Warn("discarding unusable snapshot", "sessionID", id, "error", err)
		}
	case errors.Is(err, apperror.ErrGameNotFound):
	default:
		sess.Close()
		return nil, nil, fmt.Errorf("failed to get game: %w", err)
	}

	updates, _ := sess.Subscribe()

	initial := sess.Snapshot()
	if err = that.gameRepo.CreateOrUpdate(ctx, &initial); err != nil {
		sess.Close()
		return nil, nil, fmt.Errorf("failed to save game: %w", err)
	}

	return sess, updates, nil
}

// retire stops a session already removed from the registry and deletes its snapshot.
func (that *GameManager) retire(ctx context.Context, id string, live *liveSession) error {
	if live != nil {
		that.stop(live)
	}

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil && !errors.Is(err, apperror.ErrGameNotFound) {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	return nil
}

func (that *GameManager) stop(live *liveSession) {
	if live.session == nil {
		return
	}

	live.session.Close()
	<-live.saved
}

// persist writes snapshots in the order the session published them.
func (that *GameManager) persist(id string, updates <-chan entity.Game, saved chan<- struct{}) {
	defer close(saved)

	log := that.logger.With("method", "persist", "sessionID", id)

	for game := range updates {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := that.gameRepo.CreateOrUpdate(ctx, &game); err != nil {
			log.Error("failed to save game", "error", err)
		}
		cancel()
	}
}
