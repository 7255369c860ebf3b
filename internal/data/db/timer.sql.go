package db

import "context"

const addTimeSpent = `INSERT INTO time_spent (owner_id, task_id, total_ns) VALUES (?, ?, ?)
ON CONFLICT (owner_id, task_id) DO UPDATE SET total_ns = total_ns + excluded.total_ns`

// AddTimeSpent adds ns to the task's running total.
func (q *Queries) AddTimeSpent(ctx context.Context, ownerID, taskID string, ns int64) error {
	_, err := q.db.ExecContext(ctx, addTimeSpent, ownerID, taskID, ns)
	return err
}

const listTimeSpent = `SELECT task_id, total_ns FROM time_spent
WHERE owner_id = ? AND total_ns > 0 ORDER BY task_id`

func (q *Queries) ListTimeSpent(ctx context.Context, ownerID string) ([]TimeSpent, error) {
	rows, err := q.db.QueryContext(ctx, listTimeSpent, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TimeSpent
	for rows.Next() {
		var i TimeSpent
		if err := rows.Scan(&i.TaskID, &i.TotalNs); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertTimerSession = `INSERT INTO timer_sessions (id, owner_id, task_id, started_at, ended_at, elapsed_ns, exhausted)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTimerSession(ctx context.Context, s TimerSession) error {
	_, err := q.db.ExecContext(ctx, insertTimerSession,
		s.ID,
		s.OwnerID,
		s.TaskID,
		s.StartedAt,
		s.EndedAt,
		s.ElapsedNs,
		s.Exhausted,
	)
	return err
}

const listTimerSessions = `SELECT id, owner_id, task_id, started_at, ended_at, elapsed_ns, exhausted
FROM timer_sessions WHERE owner_id = ? AND task_id = ? ORDER BY started_at ASC`

// ListTimerSessions returns the finished sessions of one task, oldest first.
func (q *Queries) ListTimerSessions(ctx context.Context, ownerID, taskID string) ([]TimerSession, error) {
	rows, err := q.db.QueryContext(ctx, listTimerSessions, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TimerSession
	for rows.Next() {
		var i TimerSession
		if err := rows.Scan(&i.ID, &i.OwnerID, &i.TaskID, &i.StartedAt, &i.EndedAt, &i.ElapsedNs, &i.Exhausted); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const saveActiveTimer = `INSERT INTO active_timer (owner_id, task_id, started_at, budget_ns) VALUES (?, ?, ?, ?)
ON CONFLICT (owner_id) DO UPDATE SET task_id = excluded.task_id, started_at = excluded.started_at, budget_ns = excluded.budget_ns`

func (q *Queries) SaveActiveTimer(ctx context.Context, a ActiveTimer) error {
	_, err := q.db.ExecContext(ctx, saveActiveTimer, a.OwnerID, a.TaskID, a.StartedAt, a.BudgetNs)
	return err
}

const getActiveTimer = `SELECT owner_id, task_id, started_at, budget_ns FROM active_timer WHERE owner_id = ?`

// GetActiveTimer returns sql.ErrNoRows when the owner has no running session.
func (q *Queries) GetActiveTimer(ctx context.Context, ownerID string) (ActiveTimer, error) {
	var a ActiveTimer
	err := q.db.QueryRowContext(ctx, getActiveTimer, ownerID).Scan(&a.OwnerID, &a.TaskID, &a.StartedAt, &a.BudgetNs)
	return a, err
}

const endActiveTimer = `DELETE FROM active_timer WHERE owner_id = ? AND task_id = ? AND started_at = ?`

// EndActiveTimer removes the owner's running session only if it is the one
// identified by taskID and startedAt. It reports the affected row count.
func (q *Queries) EndActiveTimer(ctx context.Context, ownerID, taskID string, startedAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, endActiveTimer, ownerID, taskID, startedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const clearActiveTimer = `DELETE FROM active_timer WHERE owner_id = ?`

func (q *Queries) ClearActiveTimer(ctx context.Context, ownerID string) error {
	_, err := q.db.ExecContext(ctx, clearActiveTimer, ownerID)
	return err
}
