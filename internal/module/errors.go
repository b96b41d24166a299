package module

import (
	"errors"
	"fmt"
)

// NotFoundError reports a module that no lookup could find.
type NotFoundError struct {
	// Name is the name as requested.
	Name string

	// Requester is the title of the requiring module, empty at top level.
	Requester string

	// Resolved is Name after relative resolution.
	Resolved string

	// Err is the host loader's failure, if one was consulted.
	Err error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("cannot find module %q", e.Name)
	if e.Requester != "" {
		msg += fmt.Sprintf(" required by %q", e.Requester)
	}
	if e.Resolved != e.Name {
		msg += fmt.Sprintf(", resolved to %q", e.Resolved)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a module whose definition failed or panicked.
type ExecutionError struct {
	Title string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("error executing module %q: %v", e.Title, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsExecutionError reports whether err is, or wraps, an ExecutionError.
func IsExecutionError(err error) bool {
	var ee *ExecutionError
	return errors.As(err, &ee)
}
