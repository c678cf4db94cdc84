package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/flowkit/errors"
)

// DefaultEnvPrefix prefixes the environment variables bound by Load.
const DefaultEnvPrefix = "FLOWKIT"

// FileSystem abstracts the file operations of Load for tests.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem on the local disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver finds config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns the explicit paths from opts, searching standard
// locations for the ones left empty.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(configCandidates(name))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(envCandidates(name))
	}
	return files
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

func configCandidates(name string) []string {
	var paths []string
	for _, dir := range []string{".", "./config", "./cmd/" + name} {
		for _, file := range []string{name + ".yml", name + ".yaml", "config.yml", "config.yaml"} {
			paths = append(paths, dir+"/"+file)
		}
	}
	return paths
}

func envCandidates(name string) []string {
	return []string{
		"./.env." + name,
		"./config/.env." + name,
		"./.env",
		"./config/.env",
	}
}

// LoaderConfig holds dependencies and optional overrides of Load.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	EnvPrefix  string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path. The file must exist.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path. The file must exist.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// Load reads configuration for name into cfg: the YAML file first, then
// the .env file into the environment, then the prefixed environment
// variables on top. cfg is usually a *Config or a struct embedding one.
func Load(name string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{EnvPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}

	for _, explicit := range []string{lc.ConfigFile, lc.EnvFile} {
		if explicit != "" && !lc.FileSystem.Exists(explicit) {
			return errors.InvalidConfig(fmt.Sprintf("config: file %s not found", explicit))
		}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(name, lc)

	v := viper.New()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidConfig(fmt.Sprintf("config: reading %s", files.ConfigFile)).WithCause(err)
		}
	}
	if files.EnvFile != "" {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return errors.InvalidConfig(fmt.Sprintf("config: reading %s", files.EnvFile)).WithCause(err)
		}
	}
	bindEnv(v, lc.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return errors.InvalidConfig(fmt.Sprintf("config: decoding configuration of %s", name)).WithCause(err)
	}
	return nil
}

// sections are the nested keys of Config. An environment variable whose
// first word names one of them sets a key inside it.
var sections = map[string]bool{
	"logging":       true,
	"scheduler":     true,
	"edge":          true,
	"observability": true,
}

// bindEnv sets viper keys from environment variables carrying prefix.
func bindEnv(v *viper.Viper, prefix string, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if k, ok := envKey(prefix, key); ok {
			v.Set(k, value)
		}
	}
}

// envKey maps PREFIX_SCHEDULER_MAX_PARALLEL to scheduler.max_parallel and
// PREFIX_BLUEPRINT_DIRS to blueprint_dirs.
func envKey(prefix, name string) (string, bool) {
	name = strings.ToLower(name)
	if prefix != "" {
		var ok bool
		name, ok = strings.CutPrefix(name, strings.ToLower(prefix)+"_")
		if !ok {
			return "", false
		}
	}
	if name == "" {
		return "", false
	}
	section, rest, ok := strings.Cut(name, "_")
	if ok && sections[section] && rest != "" {
		return section + "." + rest, true
	}
	return name, true
}
