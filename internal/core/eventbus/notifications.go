package eventbus

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/tally/internal/core/bulk"
	"github.com/colonyops/tally/internal/core/notify"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeTimerStarted(func(p TimerStartedPayload) {
		r.publish(notify.LevelInfo, "🍅 Timer Started!", "Working on: %s", p.Title)
	})

	r.bus.SubscribeTimerStopped(func(p TimerStoppedPayload) {
		r.publish(notify.LevelInfo, "⏰ Timer Stopped!", "Time recorded: %d minutes", roundMinutes(p.Record.Elapsed))
	})

	r.bus.SubscribeTimerCompleted(func(p TimerCompletedPayload) {
		r.publish(notify.LevelSuccess, "🍅 Pomodoro Complete!", "Great work! Time for a break.")
	})

	r.bus.SubscribeBulkFinished(func(p BulkFinishedPayload) {
		res := p.Result
		if res.Requested == 0 {
			return
		}

		switch {
		case res.OK() && res.Op == bulk.OpComplete:
			r.publish(notify.LevelSuccess, "✅ Bulk Complete Success!", "Completed %d tasks", res.Succeeded)
		case res.OK() && res.Op == bulk.OpDelete:
			r.publish(notify.LevelSuccess, "🗑️ Bulk Delete Success!", "Deleted %d tasks", res.Succeeded)
		default:
			r.publish(notify.LevelWarning, "⚠️ Bulk "+string(res.Op)+" incomplete",
				"%d of %d succeeded, failed: %v", res.Succeeded, res.Requested, res.FailedIDs())
		}
	})

	r.bus.SubscribeExportFinished(func(p ExportFinishedPayload) {
		if p.Selected {
			r.publish(notify.LevelSuccess, "📊 Export Complete!", "Exported %d selected tasks", p.Count)
			return
		}
		r.publish(notify.LevelSuccess, "📊 Export Complete!", "Exported %d tasks", p.Count)
	})

	r.bus.SubscribeStoreFailed(func(p StoreFailedPayload) {
		r.publish(notify.LevelError, "Sync error", "%s failed: %v", p.Op, p.Err)
	})
}

func (r *NotificationRouter) publish(level notify.Level, title, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Title:   title,
		Message: fmt.Sprintf(format, args...),
	})
}

// ForwardNotifications delivers every published notification to n. Delivery
// failures are logged and otherwise ignored.
func ForwardNotifications(bus *EventBus, n notify.Notifier, logger zerolog.Logger) {
	bus.SubscribeNotificationPublished(func(p NotificationPublishedPayload) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := n.Notify(ctx, notify.Notification{
			Level:   p.Level,
			Title:   p.Title,
			Message: p.Message,
		})
		if err != nil {
			logger.Warn().Err(err).Str("title", p.Title).Msg("notification delivery failed")
		}
	})
}

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
