package task

import (
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
)

// Validate checks the fields required at creation time. Callers get a
// *ValidationError so they can reject the request before touching the store.
func (f Fields) Validate() error {
	err := criterio.ValidateStruct(
		criterio.Run("title", f.Title, required),
		criterio.Run("deadline", f.Deadline, deadline),
		criterio.Run("area", string(f.Area), area),
		criterio.Run("priority", string(f.Priority), priority),
	)
	if err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// Validate checks the fields a patch sets. Empty titles and unparseable
// deadlines are rejected the same way as on creation.
func (p Patch) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if p.Title != nil {
		if err := required(*p.Title); err != nil {
			errs = errs.Append("title", err)
		}
	}
	if p.Deadline != nil {
		if err := deadline(*p.Deadline); err != nil {
			errs = errs.Append("deadline", err)
		}
	}
	if p.Area != nil {
		if err := area(string(*p.Area)); err != nil {
			errs = errs.Append("area", err)
		}
	}
	if p.Priority != nil {
		if err := priority(string(*p.Priority)); err != nil {
			errs = errs.Append("priority", err)
		}
	}
	if p.Completed != nil && *p.Completed && p.CompletedAt == nil {
		errs = errs.Append("completed_at", fmt.Errorf("required when completing a task"))
	}
	if p.Completed == nil && p.CompletedAt != nil {
		errs = errs.Append("completed_at", fmt.Errorf("cannot be set without completed"))
	}

	if err := errs.ToError(); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// ValidateTitle checks a title on its own, for forms that validate as the
// user types.
func ValidateTitle(s string) error { return required(s) }

// ValidateDeadline checks a deadline on its own.
func ValidateDeadline(s string) error { return deadline(s) }

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

func deadline(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("is required")
	}
	if _, ok := ParseDeadline(s, nil); !ok {
		return fmt.Errorf("%q is not a date (want %s)", s, DateLayout)
	}
	return nil
}

func area(a string) error {
	if !Area(a).IsValid() {
		return fmt.Errorf("invalid area %q: must be one of Home, Work, Self", a)
	}
	return nil
}

func priority(p string) error {
	if !Priority(p).IsValid() {
		return fmt.Errorf("invalid priority %q: must be one of high, medium, low", p)
	}
	return nil
}
