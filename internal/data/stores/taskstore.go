package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/data/db"
	"github.com/colonyops/tally/pkg/randid"
)

const maxIDAttempts = 3

// TaskStore implements task.Remote using SQLite. Every mutation pushes a
// fresh snapshot of the owner's collection to that owner's subscribers.
type TaskStore struct {
	db    *db.DB
	log   zerolog.Logger
	now   func() time.Time
	newID func() (string, error)

	mu      sync.Mutex
	nextSub int
	subs    map[int]subscriber
}

type subscriber struct {
	owner      string
	onSnapshot func([]task.Task)
	onError    func(error)
}

var _ task.Remote = (*TaskStore)(nil)

// NewTaskStore creates a new SQLite-backed task store.
func NewTaskStore(database *db.DB, log zerolog.Logger) *TaskStore {
	return &TaskStore{
		db:    database,
		log:   log,
		now:   time.Now,
		newID: func() (string, error) { return randid.Generate(randid.TaskIDLength), nil },
		subs:  make(map[int]subscriber),
	}
}

// Subscribe delivers the owner's current collection immediately and again
// after every change. The subscription ends when cancel is called or ctx is
// done.
func (s *TaskStore) Subscribe(ctx context.Context, ownerID string, onSnapshot func([]task.Task), onError func(error)) (func(), error) {
	if onSnapshot == nil {
		return nil, errors.New("subscribe: onSnapshot is required")
	}
	if onError == nil {
		onError = func(err error) {
			s.log.Error().Err(err).Str("owner_id", ownerID).Msg("snapshot delivery failed")
		}
	}

	tasks, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = subscriber{owner: ownerID, onSnapshot: onSnapshot, onError: onError}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
	stop := context.AfterFunc(ctx, cancel)

	onSnapshot(tasks)

	return func() {
		stop()
		cancel()
	}, nil
}

// List returns the owner's tasks, newest first.
func (s *TaskStore) List(ctx context.Context, ownerID string) ([]task.Task, error) {
	rows, err := s.db.Queries().ListTasks(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, rowToTask(row))
	}
	return tasks, nil
}

// Get returns a task by ID. Returns task.ErrNotFound if not found.
func (s *TaskStore) Get(ctx context.Context, id string) (task.Task, error) {
	row, err := s.db.Queries().GetTask(ctx, id)
	if IsNotFoundError(err) {
		return task.Task{}, &task.NotFoundError{ID: id}
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}
	return rowToTask(row), nil
}

// Create persists a new task and returns its generated id.
func (s *TaskStore) Create(ctx context.Context, ownerID string, fields task.Fields) (string, error) {
	now := s.now()

	var lastErr error
	for range maxIDAttempts {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}

		err = s.db.Queries().InsertTask(ctx, db.Task{
			ID:          id,
			OwnerID:     ownerID,
			Title:       fields.Title,
			Description: fields.Description,
			Area:        string(fields.Area),
			Priority:    string(fields.Priority),
			Deadline:    fields.Deadline,
			CreatedAt:   now.UnixNano(),
			UpdatedAt:   now.UnixNano(),
		})
		if err == nil {
			s.publish(ctx, ownerID)
			return id, nil
		}
		if !IsConstraintError(err) {
			return "", fmt.Errorf("insert task: %w", err)
		}
		lastErr = err
	}

	return "", fmt.Errorf("insert task: %w", lastErr)
}

// Update applies a partial update to one of the owner's tasks in a single
// transaction. Tasks owned by someone else are reported as not found.
func (s *TaskStore) Update(ctx context.Context, ownerID, id string, patch task.Patch) error {
	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		row, err := q.GetTask(ctx, id)
		if IsNotFoundError(err) || (err == nil && row.OwnerID != ownerID) {
			return &task.NotFoundError{ID: id}
		}
		if err != nil {
			return fmt.Errorf("get task: %w", err)
		}

		updated := taskToRow(patch.Apply(rowToTask(row)))
		updated.UpdatedAt = s.now().UnixNano()

		n, err := q.UpdateTask(ctx, updated)
		if err != nil {
			if IsBusyError(err) {
				s.log.Warn().Str("task_id", id).Msg("database busy during update")
			}
			return fmt.Errorf("update task: %w", err)
		}
		if n == 0 {
			return &task.NotFoundError{ID: id}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, ownerID)
	return nil
}

// Delete removes one of the owner's tasks. Returns task.ErrNotFound if the
// task does not exist or belongs to another owner.
func (s *TaskStore) Delete(ctx context.Context, ownerID, id string) error {
	n, err := s.db.Queries().DeleteTask(ctx, ownerID, id)
	if err != nil {
		if IsBusyError(err) {
			s.log.Warn().Str("task_id", id).Msg("database busy during delete")
		}
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return &task.NotFoundError{ID: id}
	}

	s.publish(ctx, ownerID)
	return nil
}

// Version returns a fingerprint of the owner's collection. It changes when
// any process inserts, updates, or deletes one of the owner's tasks.
func (s *TaskStore) Version(ctx context.Context, ownerID string) (string, error) {
	updated, count, err := s.db.Queries().TaskVersion(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("task version: %w", err)
	}
	return fmt.Sprintf("%d:%d", updated, count), nil
}

// Refresh re-delivers a snapshot to every subscriber. It is used when
// another process has written to the database.
func (s *TaskStore) Refresh(ctx context.Context) {
	s.mu.Lock()
	owners := make(map[string]bool)
	for _, sub := range s.subs {
		owners[sub.owner] = true
	}
	s.mu.Unlock()

	for owner := range owners {
		s.publish(ctx, owner)
	}
}

func (s *TaskStore) publish(ctx context.Context, owner string) {
	s.mu.Lock()
	targets := make([]subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.owner == owner {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	tasks, err := s.List(ctx, owner)
	for _, sub := range targets {
		if err != nil {
			sub.onError(err)
			continue
		}
		sub.onSnapshot(task.CloneAll(tasks))
	}
}

func rowToTask(row db.Task) task.Task {
	t := task.Task{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Description: row.Description,
		Area:        task.Area(row.Area),
		Priority:    task.Priority(row.Priority),
		Deadline:    row.Deadline,
		Completed:   row.Completed,
		CreatedAt:   time.Unix(0, row.CreatedAt),
	}
	if row.Completed && row.CompletedAt.Valid {
		at := time.Unix(0, row.CompletedAt.Int64)
		t.CompletedAt = &at
	}
	return t
}

func taskToRow(t task.Task) db.Task {
	row := db.Task{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Area:        string(t.Area),
		Priority:    string(t.Priority),
		Deadline:    t.Deadline,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UnixNano(),
	}
	if t.Completed && t.CompletedAt != nil {
		row.CompletedAt = sql.NullInt64{Int64: t.CompletedAt.UnixNano(), Valid: true}
	}
	return row
}
