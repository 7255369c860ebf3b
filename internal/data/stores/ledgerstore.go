package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/tally/internal/core/timer"
	"github.com/colonyops/tally/internal/data/db"
)

// LedgerStore persists one owner's tracked time, finished sessions, and
// running session so a timer started by one command survives into the next.
type LedgerStore struct {
	db    *db.DB
	owner string
}

// NewLedgerStore creates a SQLite-backed ledger store scoped to ownerID.
func NewLedgerStore(database *db.DB, ownerID string) *LedgerStore {
	return &LedgerStore{db: database, owner: ownerID}
}

// Totals returns the owner's accumulated time per task.
func (s *LedgerStore) Totals(ctx context.Context) (map[string]time.Duration, error) {
	rows, err := s.db.Queries().ListTimeSpent(ctx, s.owner)
	if err != nil {
		return nil, fmt.Errorf("list time spent: %w", err)
	}

	out := make(map[string]time.Duration, len(rows))
	for _, row := range rows {
		out[row.TaskID] = time.Duration(row.TotalNs)
	}
	return out, nil
}

// Record ends the persisted running session, credits it, and stores its
// history row in one transaction. It returns the generated session id, or
// timer.ErrStaleSession without crediting anything when r is not the
// session persisted as running.
func (s *LedgerStore) Record(ctx context.Context, r timer.Record) (string, error) {
	id := uuid.NewString()
	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		n, err := q.EndActiveTimer(ctx, s.owner, r.TaskID, r.StartTime.UnixNano())
		if err != nil {
			return fmt.Errorf("end active timer: %w", err)
		}
		if n == 0 {
			return timer.ErrStaleSession
		}

		if err := q.AddTimeSpent(ctx, s.owner, r.TaskID, int64(max(r.Elapsed, 0))); err != nil {
			return fmt.Errorf("add time spent: %w", err)
		}
		if err := q.InsertTimerSession(ctx, db.TimerSession{
			ID:        id,
			OwnerID:   s.owner,
			TaskID:    r.TaskID,
			StartedAt: r.StartTime.UnixNano(),
			EndedAt:   r.EndTime.UnixNano(),
			ElapsedNs: int64(r.Elapsed),
			Exhausted: r.Exhausted,
		}); err != nil {
			return fmt.Errorf("insert timer session: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// History returns the finished sessions of a task, oldest first.
func (s *LedgerStore) History(ctx context.Context, taskID string) ([]timer.Record, error) {
	rows, err := s.db.Queries().ListTimerSessions(ctx, s.owner, taskID)
	if err != nil {
		return nil, fmt.Errorf("list timer sessions: %w", err)
	}

	out := make([]timer.Record, 0, len(rows))
	var total time.Duration
	for _, row := range rows {
		total += time.Duration(row.ElapsedNs)
		out = append(out, timer.Record{
			TaskID:    row.TaskID,
			StartTime: time.Unix(0, row.StartedAt),
			EndTime:   time.Unix(0, row.EndedAt),
			Elapsed:   time.Duration(row.ElapsedNs),
			Total:     total,
			Exhausted: row.Exhausted,
		})
	}
	return out, nil
}

// SaveActive stores the owner's running session, replacing any previous one.
func (s *LedgerStore) SaveActive(ctx context.Context, sess timer.Session) error {
	err := s.db.Queries().SaveActiveTimer(ctx, db.ActiveTimer{
		OwnerID:   s.owner,
		TaskID:    sess.TaskID,
		StartedAt: sess.StartTime.UnixNano(),
		BudgetNs:  int64(sess.Budget),
	})
	if err != nil {
		return fmt.Errorf("save active timer: %w", err)
	}
	return nil
}

// LoadActive returns the running session. ok is false when none is stored.
func (s *LedgerStore) LoadActive(ctx context.Context) (timer.Session, bool, error) {
	row, err := s.db.Queries().GetActiveTimer(ctx, s.owner)
	if IsNotFoundError(err) {
		return timer.Session{}, false, nil
	}
	if err != nil {
		return timer.Session{}, false, fmt.Errorf("get active timer: %w", err)
	}

	return timer.Session{
		TaskID:    row.TaskID,
		StartTime: time.Unix(0, row.StartedAt),
		Budget:    time.Duration(row.BudgetNs),
	}, true, nil
}

// ClearActive forgets the running session.
func (s *LedgerStore) ClearActive(ctx context.Context) error {
	if err := s.db.Queries().ClearActiveTimer(ctx, s.owner); err != nil {
		return fmt.Errorf("clear active timer: %w", err)
	}
	return nil
}
