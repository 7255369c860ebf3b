package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Notifier delivers a notification. Delivery is best effort: callers log
// failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }

// StoreNotifier persists notifications so `notifications ls` can show them
// later.
type StoreNotifier struct {
	store Store
	now   func() time.Time
}

// NewStoreNotifier wraps a Store.
func NewStoreNotifier(store Store) *StoreNotifier {
	return &StoreNotifier{store: store, now: time.Now}
}

func (s *StoreNotifier) Notify(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if _, err := s.store.Save(ctx, n); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// WriterNotifier prints notifications as single lines, for terminals that
// stand in for a desktop notification center.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier writes to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (wn *WriterNotifier) Notify(_ context.Context, n Notification) error {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	_, err := fmt.Fprintf(wn.w, "%s %s\n", n.Title, n.Message)
	return err
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
