package config

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/scheduler"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{Name: "demo"}
	cfg.ApplyDefaults()

	if cfg.Environment != EnvDevelopment {
		t.Errorf("expected %q, got %q", EnvDevelopment, cfg.Environment)
	}
	if cfg.Scheduler.Type != scheduler.TypeSync {
		t.Errorf("expected sync scheduler, got %q", cfg.Scheduler.Type)
	}
	if cfg.Scheduler.MaxParallel != runtime.GOMAXPROCS(0) {
		t.Errorf("expected max parallel %d, got %d", runtime.GOMAXPROCS(0), cfg.Scheduler.MaxParallel)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info logging, got %q", cfg.Logging.Level)
	}
	if cfg.Observability.ServiceName != "demo" || cfg.Observability.Environment != EnvDevelopment {
		t.Errorf("expected observability to inherit name and environment, got %q/%q",
			cfg.Observability.ServiceName, cfg.Observability.Environment)
	}
	if cfg.Edge.Capacity != 0 {
		t.Errorf("expected unbounded edges, got %d", cfg.Edge.Capacity)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing name", func(c *Config) { c.Name = "" }, "name"},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "environment"},
		{"bad scheduler", func(c *Config) { c.Scheduler.Type = "fifo" }, "scheduler.type"},
		{"negative capacity", func(c *Config) { c.Edge.Capacity = -1 }, "edge.capacity"},
		{"bad sample rate", func(c *Config) { c.Observability.SampleRate = 2 }, "observability.sample_rate"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Name: "demo"}
			cfg.ApplyDefaults()
			tc.modify(&cfg)

			err := cfg.Validate()
			if tc.field == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("expected INVALID_CONFIG, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("expected error mentioning %q, got %q", tc.field, err.Error())
			}
		})
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yml")
	content := `
name: demo
environment: staging
pipeline: pipelines/demo.yaml
scheduler:
  type: pool
  max_parallel: 3
edge:
  capacity: 8
observability:
  interval: 5s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	if err := Load("demo", &cfg, WithConfigFile(path), WithEnvPrefix("FLOWKIT_TEST_NONE")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "demo" || cfg.Environment != EnvStaging || cfg.Pipeline != "pipelines/demo.yaml" {
		t.Errorf("unexpected top level %+v", cfg)
	}
	if cfg.Scheduler.Type != scheduler.TypePool || cfg.Scheduler.MaxParallel != 3 {
		t.Errorf("unexpected scheduler %+v", cfg.Scheduler)
	}
	if cfg.Edge.Capacity != 8 {
		t.Errorf("expected capacity 8, got %d", cfg.Edge.Capacity)
	}
	if cfg.Observability.Interval != 5*time.Second {
		t.Errorf("expected 5s interval, got %v", cfg.Observability.Interval)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("name: demo\nscheduler:\n  type: sync\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("FLOWKITTEST_EDGE_CAPACITY=4\n"), 0o644); err != nil {
		t.Fatalf("failed to write env: %v", err)
	}
	t.Setenv("FLOWKITTEST_SCHEDULER_TYPE", "thread_per_process")
	t.Setenv("FLOWKITTEST_BLUEPRINT_DIRS", "a,b")
	t.Cleanup(func() { os.Unsetenv("FLOWKITTEST_EDGE_CAPACITY") })

	var cfg Config
	err := Load("demo", &cfg, WithConfigFile(path), WithEnvFile(envPath), WithEnvPrefix("FLOWKITTEST"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scheduler.Type != scheduler.TypeThreadPerProcess {
		t.Errorf("expected env to override scheduler type, got %q", cfg.Scheduler.Type)
	}
	if cfg.Edge.Capacity != 4 {
		t.Errorf("expected capacity 4 from .env, got %d", cfg.Edge.Capacity)
	}
	if !slices.Equal(cfg.BlueprintDirs, []string{"a", "b"}) {
		t.Errorf("expected blueprint dirs [a b], got %v", cfg.BlueprintDirs)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	var cfg Config
	err := Load("demo", &cfg, WithConfigFile("/nonexistent/demo.yml"))
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("scheduler: [\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	var cfg Config
	if err := Load("demo", &cfg, WithConfigFile(path)); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolveFiles(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		opts       LoaderConfig
		wantConfig string
		wantEnv    string
	}{
		{"nothing found", nil, LoaderConfig{}, "", ""},
		{"named file wins", []string{"./demo.yml", "./config.yml"}, LoaderConfig{}, "./demo.yml", ""},
		{"config directory", []string{"./config/config.yaml"}, LoaderConfig{}, "./config/config.yaml", ""},
		{"cmd directory", []string{"./cmd/demo/config.yml"}, LoaderConfig{}, "./cmd/demo/config.yml", ""},
		{"named env first", []string{"./.env", "./.env.demo"}, LoaderConfig{}, "", "./.env.demo"},
		{"explicit paths", []string{"./demo.yml"}, LoaderConfig{ConfigFile: "x.yml", EnvFile: "x.env"}, "x.yml", "x.env"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := &mockFS{files: make(map[string]bool)}
			for _, f := range tc.files {
				fs.files[f] = true
			}
			r := &Resolver{FileSystem: fs}
			got := r.ResolveFiles("demo", tc.opts)
			if got.ConfigFile != tc.wantConfig || got.EnvFile != tc.wantEnv {
				t.Errorf("expected %q/%q, got %q/%q", tc.wantConfig, tc.wantEnv, got.ConfigFile, got.EnvFile)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		prefix string
		env    string
		want   string
		ok     bool
	}{
		{"FLOWKIT", "FLOWKIT_SCHEDULER_MAX_PARALLEL", "scheduler.max_parallel", true},
		{"FLOWKIT", "FLOWKIT_LOGGING_NO_COLOR", "logging.no_color", true},
		{"FLOWKIT", "FLOWKIT_OBSERVABILITY_SAMPLE_RATE", "observability.sample_rate", true},
		{"FLOWKIT", "FLOWKIT_NAME", "name", true},
		{"FLOWKIT", "FLOWKIT_BLUEPRINT_DIRS", "blueprint_dirs", true},
		{"FLOWKIT", "HOME", "", false},
		{"FLOWKIT", "FLOWKIT_", "", false},
		{"", "EDGE_CAPACITY", "edge.capacity", true},
		{"", "SCHEDULER", "scheduler", true},
	}
	for _, tc := range tests {
		t.Run(tc.env, func(t *testing.T) {
			got, ok := envKey(tc.prefix, tc.env)
			if got != tc.want || ok != tc.ok {
				t.Errorf("envKey(%q, %q) = %q, %v; want %q, %v", tc.prefix, tc.env, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	for _, opt := range []LoaderOption{
		WithFileSystem(fs),
		WithConfigFile("/path/to/config.yml"),
		WithEnvFile("/path/to/.env"),
		WithEnvPrefix("APP"),
	} {
		opt(&lc)
	}
	if lc.FileSystem != fs || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" || lc.EnvPrefix != "APP" {
		t.Errorf("unexpected loader config %+v", lc)
	}
}
