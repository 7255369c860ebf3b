// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within tally.
package eventbus

import (
	"github.com/colonyops/tally/internal/core/bulk"
	"github.com/colonyops/tally/internal/core/notify"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/core/timer"
)

// Event names a bus topic.
type Event string

const (
	// Keep list sorted A-Z
	EventBulkFinished          Event = "bulk.finished"
	EventExportFinished        Event = "export.finished"
	EventNotificationPublished Event = "notification.published"
	EventStoreFailed           Event = "store.failed"
	EventTaskSnapshot          Event = "task.snapshot"
	EventTimerCompleted        Event = "timer.completed"
	EventTimerStarted          Event = "timer.started"
	EventTimerStopped          Event = "timer.stopped"
)

// Events lists every topic with its payload type.
var Events = map[Event]any{
	EventBulkFinished:          BulkFinishedPayload{},
	EventExportFinished:        ExportFinishedPayload{},
	EventNotificationPublished: NotificationPublishedPayload{},
	EventStoreFailed:           StoreFailedPayload{},
	EventTaskSnapshot:          TaskSnapshotPayload{},
	EventTimerCompleted:        TimerCompletedPayload{},
	EventTimerStarted:          TimerStartedPayload{},
	EventTimerStopped:          TimerStoppedPayload{},
}

// TaskSnapshotPayload is emitted each time the mirror takes a new snapshot.
type TaskSnapshotPayload struct {
	Tasks []task.Task
}

// StoreFailedPayload is emitted when a store call or subscription fails.
type StoreFailedPayload struct {
	Op  string
	ID  string
	Err error
}

// TimerStartedPayload is emitted when a focus session begins.
type TimerStartedPayload struct {
	Session timer.Session
	Title   string
}

// TimerStoppedPayload is emitted when a session is stopped by the user or
// implicitly by a new start.
type TimerStoppedPayload struct {
	Record timer.Record
	Title  string
}

// TimerCompletedPayload is emitted once when a session runs out its budget.
type TimerCompletedPayload struct {
	Record timer.Record
	Title  string
}

// BulkFinishedPayload is emitted after every item of a batch has settled.
type BulkFinishedPayload struct {
	Result bulk.Result
}

// ExportFinishedPayload is emitted after an export file is written.
type ExportFinishedPayload struct {
	Path     string
	Count    int
	Selected bool
}

// NotificationPublishedPayload carries a user-facing notification.
type NotificationPublishedPayload struct {
	Level   notify.Level
	Title   string
	Message string
}
