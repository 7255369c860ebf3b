package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/tally/internal/core/timer"
)

// Ticker is the part of the timer a driver needs.
type Ticker interface {
	Tick() (timer.Record, bool)
}

// RunTicker calls Tick every interval until ctx is cancelled. onComplete, if
// set, receives each record that ended because its budget ran out.
func RunTicker(ctx context.Context, t Ticker, interval time.Duration, onComplete func(timer.Record)) {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r, ok := t.Tick()
			if !ok {
				continue
			}
			log.Debug().Str("task_id", r.TaskID).Dur("elapsed", r.Elapsed).Msg("ticker observed completion")
			if onComplete != nil {
				onComplete(r)
			}
		}
	}
}
