package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// components holds the loggers pinned by name and the per-component levels
// installed by Init.
var components = struct {
	mu     sync.RWMutex
	pinned map[string]*Logger
	levels map[string]zerolog.Level
}{pinned: make(map[string]*Logger)}

// Register pins l as the logger Get returns for name.
func Register(name string, l *Logger) {
	components.mu.Lock()
	defer components.mu.Unlock()
	components.pinned[name] = l
}

// Get returns the logger pinned under name. Otherwise it derives one from
// the global logger, tagged with the component name and running at the
// level Config.Components gives it, if any.
func Get(name string) *Logger {
	components.mu.RLock()
	l, pinned := components.pinned[name]
	level, leveled := components.levels[name]
	components.mu.RUnlock()
	if pinned {
		return l
	}
	l = GetGlobalLogger().WithComponent(name)
	if leveled {
		l = &Logger{logger: l.logger.Level(level), name: l.name}
	}
	return l
}

func setComponentLevels(levels map[string]string) {
	parsed := make(map[string]zerolog.Level, len(levels))
	for name, s := range levels {
		if level, err := zerolog.ParseLevel(s); err == nil {
			parsed[name] = level
		}
	}
	components.mu.Lock()
	components.levels = parsed
	components.mu.Unlock()
}

// Reset forgets pinned loggers and component levels.
func Reset() {
	components.mu.Lock()
	defer components.mu.Unlock()
	components.pinned = make(map[string]*Logger)
	components.levels = nil
}
