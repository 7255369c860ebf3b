package stores

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const (
	debounceDelay   = 50 * time.Millisecond
	eventBufferSize = 16
)

// ChangeWatcher reports writes to the database file made by any process,
// including this one. Bursts of filesystem events are coalesced into one
// notification.
type ChangeWatcher struct {
	names   []string
	watcher *fsnotify.Watcher
	log     zerolog.Logger

	mu          sync.Mutex
	subscribers []chan<- time.Time
	debounce    *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewChangeWatcher watches the directory holding dbPath. The main file and
// its WAL are both tracked since WAL mode writes land in the latter first.
func NewChangeWatcher(dbPath string, log zerolog.Logger) (*ChangeWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(dbPath)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	base := filepath.Base(dbPath)
	ctx, cancel := context.WithCancel(context.Background())
	cw := &ChangeWatcher{
		names:   []string{base, base + "-wal"},
		watcher: watcher,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	cw.wg.Add(1)
	go cw.run()

	return cw, nil
}

// Watch returns a channel that receives the time of each coalesced change.
// The channel is closed when ctx is done or the watcher is closed.
func (cw *ChangeWatcher) Watch(ctx context.Context) <-chan time.Time {
	ch := make(chan time.Time, eventBufferSize)

	cw.mu.Lock()
	cw.subscribers = append(cw.subscribers, ch)
	cw.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			cw.unsubscribe(ch)
		case <-cw.ctx.Done():
		}
	}()

	return ch
}

// Close stops watching and closes all subscriber channels.
func (cw *ChangeWatcher) Close() error {
	cw.cancel()

	cw.mu.Lock()
	if cw.debounce != nil {
		cw.debounce.Stop()
	}
	for _, ch := range cw.subscribers {
		close(ch)
	}
	cw.subscribers = nil
	cw.mu.Unlock()

	err := cw.watcher.Close()
	cw.wg.Wait()
	return err
}

func (cw *ChangeWatcher) unsubscribe(ch chan<- time.Time) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if i := slices.Index(cw.subscribers, ch); i >= 0 {
		cw.subscribers = slices.Delete(cw.subscribers, i, i+1)
		close(ch)
	}
}

func (cw *ChangeWatcher) run() {
	defer cw.wg.Done()

	for {
		select {
		case <-cw.ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warn().Err(err).Msg("database watcher error")
		}
	}
}

func (cw *ChangeWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if !slices.Contains(cw.names, filepath.Base(event.Name)) {
		return
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.ctx.Err() != nil {
		return
	}
	if cw.debounce != nil {
		cw.debounce.Stop()
	}
	cw.debounce = time.AfterFunc(debounceDelay, cw.notifySubscribers)
}

func (cw *ChangeWatcher) notifySubscribers() {
	now := time.Now()

	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, ch := range cw.subscribers {
		select {
		case ch <- now:
		default:
			// subscriber is behind, it will refresh on the pending signal
		}
	}
	cw.debounce = nil
}
