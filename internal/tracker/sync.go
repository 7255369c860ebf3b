package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Refresher re-delivers snapshots to subscribers.
type Refresher interface {
	Refresh(ctx context.Context)
}

// FollowChanges refreshes every r each time changes fires, so writes made by
// other processes reach this process's mirror and timer. It returns when ctx
// is done or the channel is closed.
func FollowChanges(ctx context.Context, changes <-chan time.Time, rs ...Refresher) {
	for {
		select {
		case <-ctx.Done():
			return
		case at, ok := <-changes:
			if !ok {
				return
			}
			log.Debug().Time("at", at).Msg("database changed, refreshing snapshot")
			for _, r := range rs {
				r.Refresh(ctx)
			}
		}
	}
}
