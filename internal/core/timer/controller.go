// Package timer implements the single focus-session countdown and the
// time-spent ledger it credits.
package timer

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/tally/internal/core/task"
)

// DefaultBudget is the length of a focus session.
const DefaultBudget = 25 * time.Minute

// ErrUnknownTask is returned when Start references a task that does not exist.
// The controller state is left unchanged.
var ErrUnknownTask = errors.New("timer: unknown task")

// ErrStaleSession is returned by ledger stores when a finished session is no
// longer the one persisted as running, because another process already ended
// or replaced it. Its time must not be credited again.
var ErrStaleSession = errors.New("timer: session already ended elsewhere")

// State is the controller state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Directory answers whether a task id exists.
type Directory interface {
	Has(id string) bool
}

// Session is a running countdown bound to one task.
type Session struct {
	TaskID    string        `json:"task_id"`
	StartTime time.Time     `json:"start_time"`
	Budget    time.Duration `json:"budget"`
}

// Record describes a finished session.
type Record struct {
	TaskID    string        `json:"task_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Elapsed   time.Duration `json:"elapsed"`
	Total     time.Duration `json:"total"`
	// Exhausted is true when the session ended because the budget ran out.
	Exhausted bool `json:"exhausted"`
}

// Status is a point-in-time view of the controller.
type Status struct {
	State     State         `json:"state"`
	TaskID    string        `json:"task_id,omitempty"`
	StartTime time.Time     `json:"start_time,omitzero"`
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"remaining"`
	Budget    time.Duration `json:"budget"`
}

// Listener receives session lifecycle events. Calls happen after the
// controller has released its lock, so listeners may query the controller.
type Listener interface {
	SessionStarted(s Session)
	SessionEnded(r Record)
}

// Controller owns the one running session. Start, Stop, and Tick may be
// called from different goroutines.
type Controller struct {
	tasks    Directory
	clock    Clock
	budget   time.Duration
	ledger   *Ledger
	listener Listener
	log      zerolog.Logger

	mu      sync.Mutex
	running *Session
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithBudget sets the session length.
func WithBudget(d time.Duration) Option {
	return func(ctrl *Controller) {
		if d > 0 {
			ctrl.budget = d
		}
	}
}

// WithLedger uses an existing ledger instead of an empty one.
func WithLedger(l *Ledger) Option {
	return func(ctrl *Controller) { ctrl.ledger = l }
}

// WithListener registers the lifecycle listener.
func WithListener(l Listener) Option {
	return func(ctrl *Controller) { ctrl.listener = l }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ctrl *Controller) { ctrl.log = l }
}

// New creates an idle controller.
func New(tasks Directory, opts ...Option) *Controller {
	c := &Controller{
		tasks:  tasks,
		clock:  RealClock{},
		budget: DefaultBudget,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ledger == nil {
		c.ledger = NewLedger(nil)
	}
	return c
}

// Ledger returns the ledger credited by this controller.
func (c *Controller) Ledger() *Ledger {
	return c.ledger
}

// Budget returns the configured session length.
func (c *Controller) Budget() time.Duration {
	return c.budget
}

// Start begins a session for taskID. A running session, including one for
// the same task, is stopped first and its time credited before the new
// session starts. Unknown tasks leave the controller untouched.
func (c *Controller) Start(taskID string) (Session, error) {
	if c.tasks != nil && !c.tasks.Has(taskID) {
		c.log.Warn().Str("task_id", taskID).Msg("timer start for unknown task ignored")
		return Session{}, ErrUnknownTask
	}

	c.mu.Lock()
	var previous *Record
	if c.running != nil {
		r := c.stopLocked(false)
		previous = &r
	}
	s := Session{TaskID: taskID, StartTime: c.clock.Now(), Budget: c.budget}
	c.running = &s
	c.mu.Unlock()

	if previous != nil {
		c.log.Debug().Str("task_id", previous.TaskID).Dur("elapsed", previous.Elapsed).Msg("implicit stop before start")
		c.emitEnded(*previous)
	}
	c.log.Debug().Str("task_id", taskID).Msg("timer started")
	if c.listener != nil {
		c.listener.SessionStarted(s)
	}
	return s, nil
}

// Stop ends the session for taskID and credits its elapsed time. It returns
// a *task.TimerStateError when no session is running for that task.
func (c *Controller) Stop(taskID string) (Record, error) {
	c.mu.Lock()
	if c.running == nil || c.running.TaskID != taskID {
		running := ""
		if c.running != nil {
			running = c.running.TaskID
		}
		c.mu.Unlock()
		c.log.Debug().Str("task_id", taskID).Str("running", running).Msg("timer stop without matching session")
		return Record{}, &task.TimerStateError{TaskID: taskID, Running: running}
	}
	r := c.stopLocked(false)
	c.mu.Unlock()

	c.emitEnded(r)
	return r, nil
}

// Tick checks the running session against its budget. When the budget is
// exhausted the session is stopped and the completed record is returned
// with ok set. Idle ticks do nothing.
func (c *Controller) Tick() (Record, bool) {
	c.mu.Lock()
	if c.running == nil {
		c.mu.Unlock()
		return Record{}, false
	}
	elapsed := c.clock.Now().Sub(c.running.StartTime)
	if remaining(c.running.Budget, elapsed) > 0 {
		c.mu.Unlock()
		return Record{}, false
	}
	r := c.stopLocked(true)
	c.mu.Unlock()

	c.log.Info().Str("task_id", r.TaskID).Dur("elapsed", r.Elapsed).Msg("timer session completed")
	c.emitEnded(r)
	return r, true
}

// Status reports the current state and remaining budget.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running == nil {
		return Status{State: StateIdle, Budget: c.budget, Remaining: c.budget}
	}
	elapsed := max(c.clock.Now().Sub(c.running.StartTime), 0)
	return Status{
		State:     StateRunning,
		TaskID:    c.running.TaskID,
		StartTime: c.running.StartTime,
		Elapsed:   elapsed,
		Remaining: remaining(c.running.Budget, elapsed),
		Budget:    c.running.Budget,
	}
}

// Restore resumes a session persisted by an earlier process. It is a no-op
// when a session is already running or the task is unknown.
func (c *Controller) Restore(s Session) bool {
	if !c.known(s.TaskID) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running != nil {
		return false
	}
	if s.Budget <= 0 {
		s.Budget = c.budget
	}
	c.running = &s
	return true
}

// Adopt makes the persisted session the running one without crediting or
// emitting anything. ok false, or a session for an unknown task, leaves the
// controller idle. It reports whether the running session changed.
func (c *Controller) Adopt(s Session, ok bool) bool {
	if ok && !c.known(s.TaskID) {
		ok = false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		changed := c.running != nil
		c.running = nil
		return changed
	}
	if c.running != nil && c.running.TaskID == s.TaskID && c.running.StartTime.Equal(s.StartTime) {
		return false
	}
	if s.Budget <= 0 {
		s.Budget = c.budget
	}
	c.running = &s
	return true
}

func (c *Controller) known(taskID string) bool {
	if taskID == "" {
		return false
	}
	return c.tasks == nil || c.tasks.Has(taskID)
}

// stopLocked ends the running session. Callers must hold c.mu and c.running
// must be non-nil. An exhausted session is credited exactly its budget.
func (c *Controller) stopLocked(exhausted bool) Record {
	s := *c.running
	end := c.clock.Now()
	elapsed := max(end.Sub(s.StartTime), 0)
	if exhausted {
		elapsed = s.Budget
		end = s.StartTime.Add(s.Budget)
	}
	total := c.ledger.Add(s.TaskID, elapsed)
	c.running = nil

	return Record{
		TaskID:    s.TaskID,
		StartTime: s.StartTime,
		EndTime:   end,
		Elapsed:   elapsed,
		Total:     total,
		Exhausted: exhausted,
	}
}

func (c *Controller) emitEnded(r Record) {
	if c.listener != nil {
		c.listener.SessionEnded(r)
	}
}

func remaining(budget, elapsed time.Duration) time.Duration {
	return max(budget-elapsed, 0)
}
