// Package task defines the task domain model shared by the classification,
// timer, metrics, and bulk components.
package task

import (
	"strings"
	"time"
)

// DateLayout is the layout used for task deadlines.
const DateLayout = "2006-01-02"

// Area is one of the fixed task categories used for grouping.
type Area string

const (
	AreaHome Area = "Home"
	AreaWork Area = "Work"
	AreaSelf Area = "Self"
)

// Areas returns every area in display order.
func Areas() []Area {
	return []Area{AreaHome, AreaWork, AreaSelf}
}

// IsValid reports whether a is one of the known areas.
func (a Area) IsValid() bool {
	switch a {
	case AreaHome, AreaWork, AreaSelf:
		return true
	default:
		return false
	}
}

// ParseArea resolves an area name case-insensitively.
func ParseArea(s string) (Area, bool) {
	for _, a := range Areas() {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, true
		}
	}
	return "", false
}

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort weight of the priority. Unknown priorities rank
// below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Label is the derived classification of a task.
type Label string

const (
	LabelCurrent Label = "current"
	LabelPending Label = "pending"
	LabelDone    Label = "done"
)

// Title returns the capitalized form used in exports and tables.
func (l Label) Title() string {
	switch l {
	case LabelCurrent:
		return "Current"
	case LabelPending:
		return "Pending"
	case LabelDone:
		return "Done"
	default:
		return string(l)
	}
}

// Task is a single tracked item. Identity is the store-assigned ID.
//
// CompletedAt is non-nil if and only if Completed is true.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Area        Area       `json:"area"`
	Priority    Priority   `json:"priority"`
	Deadline    string     `json:"deadline"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OwnerID     string     `json:"owner_id"`
}

// DeadlineIn parses the deadline in the given location. Date-only deadlines
// resolve to midnight at the start of that day. ok is false when the deadline
// is missing or unparseable.
func (t Task) DeadlineIn(loc *time.Location) (time.Time, bool) {
	return ParseDeadline(t.Deadline, loc)
}

// ParseDeadline parses a deadline as either a calendar date or an RFC3339
// timestamp.
func ParseDeadline(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if d, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return d, true
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d.In(loc), true
	}
	return time.Time{}, false
}

// Clone returns a copy of t that shares no pointers with it.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

// CloneAll copies a task slice so callers can hand it out without exposing
// internal state.
func CloneAll(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// Fields holds the user-supplied values for a new task.
type Fields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Area        Area     `json:"area"`
	Priority    Priority `json:"priority"`
	Deadline    string   `json:"deadline"`
}

// WithDefaults fills the optional fields the way the add form does.
func (f Fields) WithDefaults() Fields {
	if f.Area == "" {
		f.Area = AreaHome
	}
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	f.Title = strings.TrimSpace(f.Title)
	f.Deadline = strings.TrimSpace(f.Deadline)
	return f
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Area        *Area      `json:"area,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Deadline    *string    `json:"deadline,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CompletionPatch builds the patch for a completion transition. Completing
// stamps completedAt with now; reopening clears it.
func CompletionPatch(completed bool, now time.Time) Patch {
	p := Patch{Completed: &completed}
	if completed {
		p.CompletedAt = &now
	}
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Area == nil &&
		p.Priority == nil && p.Deadline == nil && p.Completed == nil && p.CompletedAt == nil
}

// Apply returns t with the patch applied. Reopening a task always clears
// CompletedAt so the completion invariant holds.
func (p Patch) Apply(t Task) Task {
	t = t.Clone()
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Area != nil {
		t.Area = *p.Area
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
		if !t.Completed {
			t.CompletedAt = nil
		}
	}
	if p.CompletedAt != nil && t.Completed {
		at := *p.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
