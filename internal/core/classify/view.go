package classify

import (
	"fmt"
	"slices"
	"strings"
)

// Mode selects which label the view shows.
type Mode string

const (
	ModeCurrent Mode = "current"
	ModePending Mode = "pending"
	ModeDone    Mode = "done"
)

// IsValid reports whether m is a known view mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeCurrent, ModePending, ModeDone:
		return true
	default:
		return false
	}
}

// ParseMode resolves a mode name; the empty string means ModeCurrent.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeCurrent, nil
	}
	if !m.IsValid() {
		return "", fmt.Errorf("invalid view mode %q: must be one of current, pending, done", s)
	}
	return m, nil
}

// Filter narrows the view. Multiple filters combine with OR.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterHigh    Filter = "high"
	FilterOverdue Filter = "overdue"
	FilterToday   Filter = "today"
)

var filterOrder = []Filter{FilterAll, FilterHigh, FilterOverdue, FilterToday}

// IsValid reports whether f is a known filter.
func (f Filter) IsValid() bool {
	return slices.Contains(filterOrder, f)
}

// NormalizeFilters returns a non-empty, de-duplicated filter set in canonical
// order. "all" is exclusive: it is dropped when any specific filter is
// present, and it is the result when nothing else is.
func NormalizeFilters(in []Filter) []Filter {
	seen := make(map[Filter]bool, len(in))
	for _, f := range in {
		if f.IsValid() {
			seen[f] = true
		}
	}

	out := make([]Filter, 0, len(seen))
	for _, f := range filterOrder {
		if f != FilterAll && seen[f] {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []Filter{FilterAll}
	}
	return out
}

// ToggleFilter flips f in the active set. Selecting "all" resets the set;
// toggling a specific filter removes "all", and an empty result falls back
// to "all".
func ToggleFilter(active []Filter, f Filter) []Filter {
	if f == FilterAll {
		return []Filter{FilterAll}
	}

	next := make([]Filter, 0, len(active)+1)
	found := false
	for _, a := range active {
		switch a {
		case FilterAll:
			continue
		case f:
			found = true
			continue
		}
		next = append(next, a)
	}
	if !found {
		next = append(next, f)
	}
	return NormalizeFilters(next)
}

// ParseFilters resolves filter names. Unknown names are an error.
func ParseFilters(names []string) ([]Filter, error) {
	out := make([]Filter, 0, len(names))
	for _, n := range names {
		f := Filter(strings.ToLower(strings.TrimSpace(n)))
		if !f.IsValid() {
			return nil, fmt.Errorf("invalid filter %q: must be one of all, high, overdue, today", n)
		}
		out = append(out, f)
	}
	return NormalizeFilters(out), nil
}

// ViewState is the presentation state consumed by Classify.
type ViewState struct {
	Mode      Mode
	Query     string
	Filters   []Filter
	Selection []string
}

// DefaultViewState is the state a fresh view starts in.
func DefaultViewState() ViewState {
	return ViewState{Mode: ModeCurrent, Filters: []Filter{FilterAll}}
}
