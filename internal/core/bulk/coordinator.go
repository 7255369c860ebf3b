// Package bulk applies completion and deletion across a set of selected
// tasks and produces the tabular export of a task set.
package bulk

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// Op names a batch mutation.
type Op string

const (
	OpComplete Op = "complete"
	OpDelete   Op = "delete"
)

// Mutator issues the per-task store requests a batch is made of.
type Mutator interface {
	Complete(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Result reports the outcome of a batch. A batch is best effort: failures
// never roll back the ids that succeeded.
type Result struct {
	Op        Op               `json:"op"`
	Requested int              `json:"requested"`
	Succeeded int              `json:"succeeded"`
	Failed    map[string]error `json:"-"`
}

// FailedIDs returns the ids that failed, sorted.
func (r Result) FailedIDs() []string {
	return slices.Sorted(maps.Keys(r.Failed))
}

// MarshalJSON adds the sorted failed ids and each failure's message, which
// the Failed map of errors cannot carry on its own.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	ids := r.FailedIDs()
	if ids == nil {
		ids = []string{}
	}
	errs := make(map[string]string, len(r.Failed))
	for id, err := range r.Failed {
		if err != nil {
			errs[id] = err.Error()
		}
	}
	return json.Marshal(struct {
		plain
		FailedIDs []string          `json:"failed_ids"`
		Errors    map[string]string `json:"errors,omitempty"`
	}{plain(r), ids, errs})
}

// OK reports whether every request succeeded.
func (r Result) OK() bool {
	return len(r.Failed) == 0
}

// Selection is the set of task ids chosen for a batch. It is safe for
// concurrent use.
type Selection struct {
	mu  sync.Mutex
	ids []string
}

// NewSelection returns a selection holding ids, deduplicated.
func NewSelection(ids ...string) *Selection {
	s := &Selection{}
	s.Replace(ids)
	return s
}

// Replace sets the selection to ids, deduplicated, keeping first-seen order.
func (s *Selection) Replace(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = dedupe(ids)
}

// Toggle adds id when absent and removes it when present.
func (s *Selection) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	s.ids = append(s.ids, id)
}

// IDs returns a copy of the selected ids.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
}

// Coordinator fans a batch out to the Mutator, one request per id, bounded
// by the worker pool.
type Coordinator struct {
	mut       Mutator
	pool      *WorkerPool
	selection *Selection
	log       zerolog.Logger
}

// NewCoordinator creates a coordinator. selection may be nil when the caller
// tracks no selection.
func NewCoordinator(mut Mutator, workers int, selection *Selection, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		mut:       mut,
		pool:      NewWorkerPool(workers),
		selection: selection,
		log:       log,
	}
}

// Complete marks every id completed.
func (c *Coordinator) Complete(ctx context.Context, ids []string) Result {
	return c.run(ctx, OpComplete, ids, c.mut.Complete)
}

// Delete removes every id.
func (c *Coordinator) Delete(ctx context.Context, ids []string) Result {
	return c.run(ctx, OpDelete, ids, c.mut.Delete)
}

// run waits for every request to settle, then clears the selection whether
// or not some requests failed.
func (c *Coordinator) run(ctx context.Context, op Op, ids []string, fn func(context.Context, string) error) Result {
	ids = dedupe(ids)
	res := Result{
		Op:        op,
		Requested: len(ids),
		Failed:    make(map[string]error),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			var err error
			if poolErr := c.pool.RunContext(ctx, func() { err = fn(ctx, id) }); poolErr != nil {
				err = poolErr
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed[id] = err
				c.log.Warn().Err(err).Str("op", string(op)).Str("task_id", id).Msg("bulk item failed")
				return
			}
			res.Succeeded++
		}(id)
	}

	wg.Wait()

	if c.selection != nil {
		c.selection.Clear()
	}

	c.log.Info().
		Str("op", string(op)).
		Int("requested", res.Requested).
		Int("succeeded", res.Succeeded).
		Int("failed", len(res.Failed)).
		Msg("bulk operation settled")

	return res
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
