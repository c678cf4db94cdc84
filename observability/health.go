package observability

import "context"

// HealthStatus represents the health state of a component or run.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of one process.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// RunHealth describes the overall health of a run and its processes.
type RunHealth struct {
	RunID      string       `json:"run_id"`
	Scheduler  string       `json:"scheduler"`
	Status     HealthStatus `json:"status"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) RunHealth
}

// NewRunHealth creates a RunHealth with status up.
func NewRunHealth(runID, scheduler string) *RunHealth {
	return &RunHealth{
		RunID:     runID,
		Scheduler: scheduler,
		Status:    HealthStatusUp,
	}
}

// AddComponent adds a process health result and degrades overall status if
// needed.
func (rh *RunHealth) AddComponent(ch Health) {
	rh.Components = append(rh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		rh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if rh.Status != HealthStatusDown {
			rh.Status = HealthStatusDegraded
		}
	}
}
