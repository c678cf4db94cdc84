package component

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   observability.Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "start "+m.name)
	}
	return m.startErr
}

func (m *mockComponent) Stop(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "stop "+m.name)
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("stop without deadline")
	}
	return m.stopErr
}

func (m *mockComponent) Health(ctx context.Context) observability.Health { return m.health }

func newRegistry() *Registry { return NewRegistry(logger.Nop()) }

func TestRegister(t *testing.T) {
	r := newRegistry()
	db := &mockComponent{name: "db"}
	if err := r.Register(db); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "db"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if r.Get("db") != db {
		t.Error("expected Get to return the registered component")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown component")
	}
	if NewRegistry(nil).log == nil {
		t.Error("expected a default logger")
	}
}

func TestStartStopOrder(t *testing.T) {
	var events []string
	r := newRegistry()
	for _, name := range []string{"telemetry", "pipeline", "extra"} {
		if err := r.Register(&mockComponent{name: name, events: &events}); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	want := []string{
		"start telemetry", "start pipeline", "start extra",
		"stop extra", "stop pipeline", "stop telemetry",
	}
	if !slices.Equal(events, want) {
		t.Errorf("expected %v, got %v", want, events)
	}

	events = nil
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("second StopAll: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected stopped components to stay stopped, got %v", events)
	}
}

func TestStartFailureStopsOnlyStarted(t *testing.T) {
	var events []string
	boom := errors.New("boom")
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "a", events: &events})
	_ = r.Register(&mockComponent{name: "b", events: &events, startErr: boom})
	_ = r.Register(&mockComponent{name: "c", events: &events})

	err := r.StartAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error wrapping boom, got %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	want := []string{"start a", "start b", "stop a"}
	if !slices.Equal(events, want) {
		t.Errorf("expected %v, got %v", want, events)
	}
}

func TestStopErrorsJoined(t *testing.T) {
	errA, errB := errors.New("a failed"), errors.New("b failed")
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: errA})
	_ = r.Register(&mockComponent{name: "b", stopErr: errB})
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both stop errors, got %v", err)
	}
}

func TestHealthAllAndAll(t *testing.T) {
	r := newRegistry()
	_ = r.Register(&mockComponent{name: "a", health: observability.Health{Name: "a", Status: observability.HealthStatusUp}})
	_ = r.Register(&mockComponent{name: "b", health: observability.Health{Status: observability.HealthStatusDegraded, Message: "slow"}})
	_ = r.Register(&mockComponent{name: "c"})

	health := r.HealthAll(context.Background())
	if len(health) != 3 {
		t.Fatalf("expected 3 health entries, got %d", len(health))
	}
	if health[0].Status != observability.HealthStatusUp || health[1].Message != "slow" {
		t.Errorf("unexpected health %+v", health)
	}
	if health[1].Name != "b" {
		t.Errorf("expected the name to default to the component name, got %q", health[1].Name)
	}
	if health[2].Status != observability.HealthStatusDown {
		t.Errorf("expected an unstarted silent component to be down, got %s", health[2].Status)
	}
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if got := r.HealthAll(context.Background())[2].Status; got != observability.HealthStatusUp {
		t.Errorf("expected a started silent component to be up, got %s", got)
	}

	all := r.All()
	if len(all) != 3 || all[0].Name() != "a" || all[2].Name() != "c" {
		t.Errorf("expected registration order, got %v", all)
	}
}

func TestRunHealth(t *testing.T) {
	tests := []struct {
		name     string
		statuses []observability.HealthStatus
		want     observability.HealthStatus
	}{
		{"empty", nil, observability.HealthStatusUp},
		{"all up", []observability.HealthStatus{observability.HealthStatusUp, observability.HealthStatusUp}, observability.HealthStatusUp},
		{"degraded", []observability.HealthStatus{observability.HealthStatusUp, observability.HealthStatusDegraded}, observability.HealthStatusDegraded},
		{"down wins", []observability.HealthStatus{observability.HealthStatusDown, observability.HealthStatusDegraded}, observability.HealthStatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry()
			for i, st := range tt.statuses {
				name := string(rune('a' + i))
				_ = r.Register(&mockComponent{name: name, health: observability.Health{Status: st}})
			}
			rh := r.RunHealth(context.Background(), "run-1", "sync")
			if rh.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, rh.Status)
			}
			if rh.RunID != "run-1" || rh.Scheduler != "sync" || len(rh.Components) != len(tt.statuses) {
				t.Errorf("unexpected run health %+v", rh)
			}
		})
	}
}

type describedComponent struct {
	mockComponent
	desc Description
}

func (d *describedComponent) Describe() Description { return d.desc }

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		c    Component
		want Description
	}{
		{"plain", &mockComponent{name: "extra"}, Description{Name: "extra"}},
		{
			"described",
			&describedComponent{mockComponent{name: "pipeline"}, Description{Name: "Pipeline", Type: "pipeline", Details: "3 processes"}},
			Description{Name: "Pipeline", Type: "pipeline", Details: "3 processes"},
		},
		{
			"unnamed description",
			&describedComponent{mockComponent{name: "telemetry"}, Description{Type: "telemetry"}},
			Description{Name: "telemetry", Type: "telemetry"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.c); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
