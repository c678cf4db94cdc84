package testutil

import (
	"context"
	"testing"

	"github.com/kbukum/flowkit/datum"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/processes"
	"github.com/kbukum/flowkit/scheduler"
)

// THelper provides testing.T integration for pipeline tests.
type THelper struct {
	t   *testing.T
	ctx context.Context
}

// T wraps a testing.T to provide helper methods.
func T(t *testing.T) *THelper {
	return &THelper{
		t:   t,
		ctx: context.Background(),
	}
}

// WithContext sets a custom context for the helper.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup sets the pipeline up and resets it when the test ends.
func (h *THelper) Setup(p *pipeline.Pipeline) *pipeline.Pipeline {
	h.t.Helper()
	if err := p.Setup(h.ctx); err != nil {
		h.t.Fatalf("failed to set up pipeline: %v", err)
	}
	h.t.Cleanup(p.Reset)
	return p
}

// Run runs a set-up pipeline with the given scheduler type and fails the
// test unless every process completed.
func (h *THelper) Run(p *pipeline.Pipeline, typ string) *scheduler.Result {
	h.t.Helper()
	s, err := scheduler.New(scheduler.Config{Type: typ}, p)
	if err != nil {
		h.t.Fatalf("failed to create %s scheduler: %v", typ, err)
	}
	result, err := s.Run(h.ctx)
	if err != nil {
		h.t.Fatalf("%s run failed: %v", typ, err)
	}
	if result.Status != scheduler.StatusCompleted {
		h.t.Fatalf("%s run ended %s", typ, result.Status)
	}
	return result
}

// MustSetup is T(t).Setup(p).
func MustSetup(t *testing.T, p *pipeline.Pipeline) *pipeline.Pipeline {
	t.Helper()
	return T(t).Setup(p)
}

// RunWith is T(t).Run(p, typ).
func RunWith(t *testing.T, p *pipeline.Pipeline, typ string) *scheduler.Result {
	t.Helper()
	return T(t).Run(p, typ)
}

// DatumValues returns the payloads of the data datums in ds.
func DatumValues(ds []datum.Datum) []any {
	var out []any
	for _, d := range ds {
		if !d.IsControl() {
			out = append(out, d.Value())
		}
	}
	return out
}

// Collected returns the datums recorded by the collector called name.
func Collected(t *testing.T, p *pipeline.Pipeline, name string) []datum.Datum {
	t.Helper()
	proc, err := p.Process(name)
	if err != nil {
		t.Fatalf("no process %s: %v", name, err)
	}
	c, ok := processes.CollectorOf(proc)
	if !ok {
		t.Fatalf("process %s is a %s, not a collector", name, proc.Type())
	}
	return c.Datums()
}

// Ints converts the data payloads of ds to ints.
func Ints(t *testing.T, ds []datum.Datum) []int {
	t.Helper()
	values := DatumValues(ds)
	out := make([]int, 0, len(values))
	for _, v := range values {
		n, ok := v.(int)
		if !ok {
			t.Fatalf("expected int payload, got %T", v)
		}
		out = append(out, n)
	}
	return out
}
