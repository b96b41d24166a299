package harness

import (
	"github.com/roach88/twboot/internal/boot"
)

// TraceEvent is one store change observed while the scenario ran.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Title   string `json:"title"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Summary is what the boot reported.
	Summary *boot.Summary `json:"summary"`

	// Trace lists every store change in order, including those made while
	// loading.
	Trace []TraceEvent `json:"trace"`

	// Exports holds the normalized exports of each executed module.
	Exports map[string]any `json:"exports,omitempty"`

	// ExecErrors holds the error of each module whose execution failed.
	ExecErrors map[string]string `json:"exec_errors,omitempty"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Trace:      []TraceEvent{},
		Exports:    make(map[string]any),
		ExecErrors: make(map[string]string),
		Errors:     []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
