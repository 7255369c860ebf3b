package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/tally/internal/core/bulk"
	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/task"
)

// TaskService forwards task intents to the store and keeps the mirror in
// sync with the store's snapshots. It never edits the mirror itself.
type TaskService struct {
	remote task.Remote
	mirror *Mirror
	bus    *eventbus.EventBus
	owner  string
	log    zerolog.Logger
	now    func() time.Time
	locks  keyedMutex

	mu     sync.Mutex
	cancel func()
}

var _ bulk.Mutator = (*TaskService)(nil)

// NewTaskService creates a TaskService for one owner.
func NewTaskService(remote task.Remote, owner string, bus *eventbus.EventBus, log zerolog.Logger) *TaskService {
	return &TaskService{
		remote: remote,
		mirror: NewMirror(),
		bus:    bus,
		owner:  owner,
		log:    log.With().Str("component", "task-service").Logger(),
		now:    time.Now,
	}
}

// Owner returns the principal the service is scoped to.
func (s *TaskService) Owner() string {
	return s.owner
}

// Mirror returns the local task collection.
func (s *TaskService) Mirror() *Mirror {
	return s.mirror
}

// Tasks returns a copy of the mirrored collection.
func (s *TaskService) Tasks() []task.Task {
	return s.mirror.Tasks()
}

// Start subscribes to the owner's tasks. The first snapshot has been applied
// by the time Start returns for stores that deliver it synchronously.
// Calling Start again replaces the previous subscription.
func (s *TaskService) Start(ctx context.Context) error {
	cancel, err := s.remote.Subscribe(ctx, s.owner, s.applySnapshot, s.subscriptionFailed)
	if err != nil {
		serr := &task.StoreError{Op: "subscribe", Err: err}
		s.publishFailure(serr)
		return serr
	}

	s.mu.Lock()
	prev := s.cancel
	s.cancel = cancel
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	return nil
}

// Close cancels the subscription.
func (s *TaskService) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *TaskService) applySnapshot(tasks []task.Task) {
	s.mirror.ApplySnapshot(tasks)
	s.log.Debug().Int("count", len(tasks)).Msg("snapshot applied")
	if s.bus != nil {
		s.bus.PublishTaskSnapshot(eventbus.TaskSnapshotPayload{Tasks: s.mirror.Tasks()})
	}
}

func (s *TaskService) subscriptionFailed(err error) {
	s.log.Error().Err(err).Msg("task subscription error")
	s.publishFailure(&task.StoreError{Op: "subscribe", Err: err})
}

// RequestCreate validates fields and asks the store to create the task. The
// mirror picks the task up from the next snapshot.
func (s *TaskService) RequestCreate(ctx context.Context, fields task.Fields) (string, error) {
	fields = fields.WithDefaults()
	if err := fields.Validate(); err != nil {
		return "", err
	}

	id, err := s.remote.Create(ctx, s.owner, fields)
	if err != nil {
		return "", s.storeError("create", "", err)
	}

	s.log.Info().Str("task_id", id).Msg("task created")
	return id, nil
}

// RequestUpdate validates the patch and forwards it. Ids missing from the
// mirror are rejected without a store call.
func (s *TaskService) RequestUpdate(ctx context.Context, id string, patch task.Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if !s.mirror.Has(id) {
		return &task.NotFoundError{ID: id}
	}
	if err := s.remote.Update(ctx, s.owner, id, patch); err != nil {
		return s.storeError("update", id, err)
	}
	return nil
}

// RequestDelete asks the store to remove a mirrored task.
func (s *TaskService) RequestDelete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if !s.mirror.Has(id) {
		return &task.NotFoundError{ID: id}
	}
	if err := s.remote.Delete(ctx, s.owner, id); err != nil {
		return s.storeError("delete", id, err)
	}

	s.log.Info().Str("task_id", id).Msg("task deleted")
	return nil
}

// Toggle flips the completion state of a mirrored task and returns the
// requested state.
func (s *TaskService) Toggle(ctx context.Context, id string) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, ok := s.mirror.Get(id)
	if !ok {
		return false, &task.NotFoundError{ID: id}
	}

	completed := !t.Completed
	if err := s.remote.Update(ctx, s.owner, id, task.CompletionPatch(completed, s.now())); err != nil {
		return false, s.storeError("update", id, err)
	}
	return completed, nil
}

// Complete marks a task completed now. It satisfies bulk.Mutator.
func (s *TaskService) Complete(ctx context.Context, id string) error {
	return s.RequestUpdate(ctx, id, task.CompletionPatch(true, s.now()))
}

// Delete satisfies bulk.Mutator.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.RequestDelete(ctx, id)
}

// storeError converts a store failure into the error taxonomy and reports
// it on the bus. Missing ids become *task.NotFoundError.
func (s *TaskService) storeError(op, id string, err error) error {
	if errors.Is(err, task.ErrNotFound) {
		var nf *task.NotFoundError
		if errors.As(err, &nf) {
			return nf
		}
		return &task.NotFoundError{ID: id}
	}

	serr := &task.StoreError{Op: op, ID: id, Err: err}
	s.log.Error().Err(err).Str("op", op).Str("task_id", id).Msg("store request failed")
	s.publishFailure(serr)
	return serr
}

func (s *TaskService) publishFailure(err *task.StoreError) {
	if s.bus == nil {
		return
	}
	s.bus.PublishStoreFailed(eventbus.StoreFailedPayload{Op: err.Op, ID: err.ID, Err: err.Err})
}
