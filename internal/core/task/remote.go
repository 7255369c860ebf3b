package task

import "context"

// Remote is the persistent store that owns the authoritative task
// collection. Local state never changes through these calls directly; it
// changes when the next snapshot arrives.
type Remote interface {
	// Subscribe registers a long-lived listener for the owner's tasks.
	// Every onSnapshot call carries the complete collection. The returned
	// function cancels the subscription.
	Subscribe(ctx context.Context, ownerID string, onSnapshot func([]Task), onError func(error)) (func(), error)

	// Create persists a new task and returns the store-assigned id.
	Create(ctx context.Context, ownerID string, fields Fields) (string, error)

	// Update applies a partial update to one of the owner's tasks. Returns
	// ErrNotFound if the task does not exist or belongs to another owner.
	Update(ctx context.Context, ownerID, id string, patch Patch) error

	// Delete removes one of the owner's tasks. Returns ErrNotFound if the
	// task does not exist or belongs to another owner.
	Delete(ctx context.Context, ownerID, id string) error
}

// ChangeKind identifies a delta operation for stores that deliver changes
// instead of full snapshots.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Change is a single delta. Delete changes only need Task.ID.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Task Task       `json:"task"`
}
