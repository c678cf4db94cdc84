package dag

import "time"

// Node statuses.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Result holds the outcome of executing a set of nodes.
type Result struct {
	// Order lists the nodes in the order they were submitted.
	Order       []string
	NodeResults map[string]NodeResult
	Duration    time.Duration
}

// NodeResult holds the outcome of a single node execution.
type NodeResult struct {
	Name     string
	Status   string // "completed" | "skipped" | "failed"
	Duration time.Duration
	Error    error
}

// Err returns the error of the first failed node in submission order.
func (r *Result) Err() error {
	for _, name := range r.Order {
		if nr := r.NodeResults[name]; nr.Status == StatusFailed {
			return nr.Error
		}
	}
	return nil
}

// Failed returns the names of the failed nodes in submission order.
func (r *Result) Failed() []string {
	var names []string
	for _, name := range r.Order {
		if r.NodeResults[name].Status == StatusFailed {
			names = append(names, name)
		}
	}
	return names
}
