package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the typed statements for every table.
type Queries struct {
	db DBTX
}

// New binds the statements to a connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy of q bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Task is a row of the tasks table. Times are unix nanoseconds.
type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Area        string
	Priority    string
	Deadline    string
	Completed   bool
	CreatedAt   int64
	CompletedAt sql.NullInt64
	UpdatedAt   int64
}

// TimeSpent is the accumulated tracked time of one task.
type TimeSpent struct {
	TaskID  string
	TotalNs int64
}

// TimerSession is one finished timer run.
type TimerSession struct {
	ID        string
	OwnerID   string
	TaskID    string
	StartedAt int64
	EndedAt   int64
	ElapsedNs int64
	Exhausted bool
}

// ActiveTimer is an owner's running session, if any.
type ActiveTimer struct {
	OwnerID   string
	TaskID    string
	StartedAt int64
	BudgetNs  int64
}

// Notification is a row of the notifications table.
type Notification struct {
	ID        int64
	Level     string
	Title     string
	Message   string
	CreatedAt int64
}
