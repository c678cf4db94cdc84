package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/scheduler"
	"github.com/kbukum/flowkit/version"
)

// Summary tracks and displays one application run.
type Summary struct {
	name            string
	environment     string
	scheduler       string
	startupDuration time.Duration
	result          *scheduler.Result
	err             error
}

// NewSummary creates a summary tracker.
func NewSummary(name, environment, schedulerType string) *Summary {
	return &Summary{name: name, environment: environment, scheduler: schedulerType}
}

// SetStartupDuration records the time spent starting components.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// SetResult records the outcome of the run.
func (s *Summary) SetResult(result *scheduler.Result, err error) {
	s.result, s.err = result, err
}

// Display writes the summary, including the live health and description of
// every component in registry.
func (s *Summary) Display(w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n%s (%s) flowkit %s started in %.2fs with the %s scheduler\n\n",
		s.name, s.environment, version.Short(), s.startupDuration.Seconds(), s.scheduler)

	if registry != nil {
		components := registry.All()
		rh := registry.RunHealth(context.Background(), "", s.scheduler)
		health := rh.Components
		if len(components) > 0 {
			fmt.Fprintf(w, "Components %s\n", rh.Status)
		}
		for i, c := range components {
			h := observability.Health{Status: observability.HealthStatusUp}
			if i < len(health) {
				h = health[i]
			}
			desc := component.Describe(c)
			line := fmt.Sprintf("%s %s %s", treePrefix(i, len(components)), healthIcon(h.Status), desc.Name)
			if desc.Details != "" {
				line += ": " + desc.Details
			}
			if h.Message != "" {
				line += " (" + h.Message + ")"
			}
			fmt.Fprintf(w, "   %s\n", line)
		}
	}

	if s.result != nil {
		r := s.result
		fmt.Fprintf(w, "\nRun %s %s in %.3fs\n", r.RunID, r.Status, r.Duration.Seconds())
		for i, p := range r.Processes {
			fmt.Fprintf(w, "   %s %s [%s] %s, %d steps\n",
				treePrefix(i, len(r.Processes)), p.Name, p.Type, strings.ToLower(p.State.String()), p.Steps)
		}
	}
	if s.err != nil {
		fmt.Fprintf(w, "\nError: %v\n", s.err)
	}
	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status observability.HealthStatus) string {
	switch status {
	case observability.HealthStatusUp:
		return "✅"
	case observability.HealthStatusDegraded:
		return "⚠️"
	case observability.HealthStatusDown:
		return "❌"
	default:
		return "❓"
	}
}
