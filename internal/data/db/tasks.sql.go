package db

import "context"

const taskColumns = `id, owner_id, title, description, area, priority, deadline, completed, created_at, completed_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Area,
		&t.Priority,
		&t.Deadline,
		&t.Completed,
		&t.CreatedAt,
		&t.CompletedAt,
		&t.UpdatedAt,
	)
	return t, err
}

const listTasks = `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? ORDER BY created_at DESC, id ASC`

// ListTasks returns the owner's tasks, newest first.
func (q *Queries) ListTasks(ctx context.Context, ownerID string) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, listTasks, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTask = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

// GetTask returns sql.ErrNoRows when id is unknown.
func (q *Queries) GetTask(ctx context.Context, id string) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, getTask, id))
}

const insertTask = `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTask(ctx context.Context, t Task) error {
	_, err := q.db.ExecContext(ctx, insertTask,
		t.ID,
		t.OwnerID,
		t.Title,
		t.Description,
		t.Area,
		t.Priority,
		t.Deadline,
		t.Completed,
		t.CreatedAt,
		t.CompletedAt,
		t.UpdatedAt,
	)
	return err
}

const updateTask = `UPDATE tasks
SET title = ?, description = ?, area = ?, priority = ?, deadline = ?,
    completed = ?, completed_at = ?, updated_at = ?
WHERE id = ? AND owner_id = ?`

// UpdateTask rewrites the mutable columns and reports the affected row count.
func (q *Queries) UpdateTask(ctx context.Context, t Task) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTask,
		t.Title,
		t.Description,
		t.Area,
		t.Priority,
		t.Deadline,
		t.Completed,
		t.CompletedAt,
		t.UpdatedAt,
		t.ID,
		t.OwnerID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTask = `DELETE FROM tasks WHERE id = ? AND owner_id = ?`

// DeleteTask removes one of the owner's tasks and reports the affected row
// count.
func (q *Queries) DeleteTask(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTask, id, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const maxUpdatedAt = `SELECT COALESCE(MAX(updated_at), 0), COUNT(*) FROM tasks WHERE owner_id = ?`

// TaskVersion returns a cheap fingerprint of the owner's tasks used to detect
// writes from other processes.
func (q *Queries) TaskVersion(ctx context.Context, ownerID string) (int64, int64, error) {
	var updated, count int64
	err := q.db.QueryRowContext(ctx, maxUpdatedAt, ownerID).Scan(&updated, &count)
	return updated, count, err
}
