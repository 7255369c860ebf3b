package eventbus_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/eventbus/testbus"
	"github.com/colonyops/tally/internal/core/timer"
)

func TestRegisterDebugLogger(t *testing.T) {
	tb := testbus.New(t)

	// Register with a nop logger to verify hooks do not panic.
	eventbus.RegisterDebugLogger(tb.EventBus, zerolog.Nop())

	// Publish a few events to exercise all subscriber paths.
	tb.PublishTaskSnapshot(eventbus.TaskSnapshotPayload{})
	tb.PublishTimerStarted(eventbus.TimerStartedPayload{Session: timer.Session{TaskID: "a"}})
	tb.PublishTimerCompleted(eventbus.TimerCompletedPayload{})

	// Wait for last event to confirm all dispatched without panic.
	tb.AssertPublished(t, eventbus.EventTimerCompleted)
}
