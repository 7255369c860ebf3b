package task

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a task id is not present.
	ErrNotFound = errors.New("task not found")
	// ErrNoSession is returned when a timer stop finds no matching session.
	ErrNoSession = errors.New("no running timer session")
)

// ValidationError reports required fields that were missing or malformed.
// It is raised before any store call is made.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid task: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError identifies the id that could not be resolved.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StoreError wraps a failed create/update/delete/subscribe call.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// TimerStateError is returned when a stop is requested for a task without a
// running session.
type TimerStateError struct {
	TaskID  string
	Running string // id of the running task, empty when idle
}

func (e *TimerStateError) Error() string {
	if e.Running == "" {
		return fmt.Sprintf("no active timer for task %s", e.TaskID)
	}
	return fmt.Sprintf("no active timer for task %s (running: %s)", e.TaskID, e.Running)
}

// Is makes errors.Is(err, ErrNoSession) match.
func (e *TimerStateError) Is(target error) bool {
	return target == ErrNoSession
}
