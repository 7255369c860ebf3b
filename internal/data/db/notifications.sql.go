package db

import "context"

const insertNotification = `INSERT INTO notifications (level, title, message, created_at) VALUES (?, ?, ?, ?)`

// InsertNotification returns the generated id.
func (q *Queries) InsertNotification(ctx context.Context, n Notification) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertNotification, n.Level, n.Title, n.Message, n.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listNotifications = `SELECT id, level, title, message, created_at FROM notifications ORDER BY created_at DESC, id DESC`

func (q *Queries) ListNotifications(ctx context.Context) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, listNotifications)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Notification
	for rows.Next() {
		var i Notification
		if err := rows.Scan(&i.ID, &i.Level, &i.Title, &i.Message, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAllNotifications = `DELETE FROM notifications`

func (q *Queries) DeleteAllNotifications(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNotifications)
	return err
}

const countNotifications = `SELECT COUNT(*) FROM notifications`

func (q *Queries) CountNotifications(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNotifications).Scan(&count)
	return count, err
}
