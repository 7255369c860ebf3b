package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/timer"
)

const persistTimeout = 5 * time.Second

// LedgerStore persists the ledger and the running session. Record returns
// timer.ErrStaleSession when the session is no longer the persisted one.
type LedgerStore interface {
	Totals(ctx context.Context) (map[string]time.Duration, error)
	Record(ctx context.Context, r timer.Record) (string, error)
	SaveActive(ctx context.Context, s timer.Session) error
	LoadActive(ctx context.Context) (timer.Session, bool, error)
}

// HistoryStore is implemented by ledger stores that keep every finished
// session, not only the totals.
type HistoryStore interface {
	History(ctx context.Context, taskID string) ([]timer.Record, error)
}

// ErrNoHistory is returned by History when the store keeps totals only.
var ErrNoHistory = errors.New("session history is not recorded by this store")

// TimerService owns the focus-timer controller. It seeds the ledger from the
// store, resumes a session started by an earlier process, and persists and
// publishes every session transition. Before each transition it re-reads the
// store so a long-lived process follows starts and stops made elsewhere.
type TimerService struct {
	ctrl   *timer.Controller
	store  LedgerStore
	mirror *Mirror
	bus    *eventbus.EventBus
	log    zerolog.Logger
}

// NewTimerService loads persisted state and builds the controller. Extra
// options such as the clock or budget are passed through to timer.New.
func NewTimerService(
	ctx context.Context,
	store LedgerStore,
	mirror *Mirror,
	bus *eventbus.EventBus,
	log zerolog.Logger,
	opts ...timer.Option,
) (*TimerService, error) {
	totals, err := store.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	svc := &TimerService{
		store:  store,
		mirror: mirror,
		bus:    bus,
		log:    log.With().Str("component", "timer-service").Logger(),
	}

	base := []timer.Option{
		timer.WithLedger(timer.NewLedger(totals)),
		timer.WithListener(svc),
		timer.WithLogger(svc.log),
	}
	svc.ctrl = timer.New(mirror, append(base, opts...)...)

	active, ok, err := store.LoadActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active timer: %w", err)
	}
	if ok && svc.ctrl.Restore(active) {
		svc.log.Debug().Str("task_id", active.TaskID).Time("started", active.StartTime).Msg("timer session restored")
	}

	return svc, nil
}

// Controller returns the underlying controller.
func (s *TimerService) Controller() *timer.Controller {
	return s.ctrl
}

// Start begins a session for a mirrored task.
func (s *TimerService) Start(taskID string) (timer.Session, error) {
	s.sync(context.Background())
	return s.ctrl.Start(taskID)
}

// Stop ends the session for taskID.
func (s *TimerService) Stop(taskID string) (timer.Record, error) {
	s.sync(context.Background())
	return s.ctrl.Stop(taskID)
}

// Tick completes the running session when its budget is spent.
func (s *TimerService) Tick() (timer.Record, bool) {
	s.sync(context.Background())
	return s.ctrl.Tick()
}

// Refresh reloads the persisted session and totals. It satisfies Refresher
// so FollowChanges can drive it.
func (s *TimerService) Refresh(ctx context.Context) {
	s.sync(ctx)
}

// sync makes the controller match the store. Failures keep the in-memory
// state and are only logged.
func (s *TimerService) sync(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	active, ok, err := s.store.LoadActive(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("timer sync skipped")
		return
	}
	totals, err := s.store.Totals(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("timer sync skipped")
		return
	}

	s.ctrl.Ledger().Replace(totals)
	if s.ctrl.Adopt(active, ok) {
		s.log.Debug().Str("task_id", active.TaskID).Bool("running", ok).Msg("timer session changed by another process")
	}
}

// Status reports the controller state.
func (s *TimerService) Status() timer.Status {
	return s.ctrl.Status()
}

// Ledger returns a copy of the tracked time per task.
func (s *TimerService) Ledger() map[string]time.Duration {
	return s.ctrl.Ledger().Snapshot()
}

// History lists the finished sessions for taskID, oldest first.
func (s *TimerService) History(ctx context.Context, taskID string) ([]timer.Record, error) {
	hs, ok := s.store.(HistoryStore)
	if !ok {
		return nil, ErrNoHistory
	}
	return hs.History(ctx, taskID)
}

// SessionStarted implements timer.Listener.
func (s *TimerService) SessionStarted(sess timer.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.store.SaveActive(ctx, sess); err != nil {
		s.failed("timer.start", sess.TaskID, err)
	}

	if s.bus != nil {
		s.bus.PublishTimerStarted(eventbus.TimerStartedPayload{Session: sess, Title: s.title(sess.TaskID)})
	}
}

// SessionEnded implements timer.Listener.
func (s *TimerService) SessionEnded(r timer.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	_, err := s.store.Record(ctx, r)
	switch {
	case errors.Is(err, timer.ErrStaleSession):
		// Another process already ended this session and credited it.
		s.log.Info().Str("task_id", r.TaskID).Msg("timer session already recorded elsewhere")
		s.sync(ctx)
		return
	case err != nil:
		s.failed("timer.record", r.TaskID, err)
	}

	if s.bus == nil {
		return
	}
	if r.Exhausted {
		s.bus.PublishTimerCompleted(eventbus.TimerCompletedPayload{Record: r, Title: s.title(r.TaskID)})
		return
	}
	s.bus.PublishTimerStopped(eventbus.TimerStoppedPayload{Record: r, Title: s.title(r.TaskID)})
}

func (s *TimerService) title(id string) string {
	if t, ok := s.mirror.Get(id); ok {
		return t.Title
	}
	return id
}

func (s *TimerService) failed(op, id string, err error) {
	s.log.Error().Err(err).Str("op", op).Str("task_id", id).Msg("timer persistence failed")
	if s.bus != nil {
		s.bus.PublishStoreFailed(eventbus.StoreFailedPayload{Op: op, ID: id, Err: err})
	}
}

var _ timer.Listener = (*TimerService)(nil)

