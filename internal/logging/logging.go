package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const historySize = 1000

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config selects the output format and levels.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

type module struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

var (
	mu       sync.RWMutex
	config   = Config{Level: "info", Format: "text"}
	modules  = map[string]*module{}
	history  = NewHistory(historySize)
	rootVar  = &slog.LevelVar{}
	listener func(Entry)
)

// Initialize applies cfg to the default logger and to every module
// logger, including those created before the call.
func Initialize(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	config = cfg
	rootVar.Set(levelOr(cfg.Level, slog.LevelInfo))

	for name, m := range modules {
		m.level.Set(moduleLevel(name))
		m.logger = slog.New(newHandler(cfg.Format, m.level)).With("module", name)
	}
	slog.SetDefault(slog.New(newHandler(cfg.Format, rootVar)))
}

// GetLogger returns the logger for name, creating it on first use.
func GetLogger(name string) *slog.Logger {
	mu.RLock()
	m, ok := modules[name]
	mu.RUnlock()
	if ok {
		return m.logger
	}

	mu.Lock()
	defer mu.Unlock()
	if m, ok := modules[name]; ok {
		return m.logger
	}
	m = &module{level: &slog.LevelVar{}}
	m.level.Set(moduleLevel(name))
	m.logger = slog.New(newHandler(config.Format, m.level)).With("module", name)
	modules[name] = m
	return m.logger
}

// SetLevel changes the level of one module, or of the default logger and
// every module without an override when name is empty. It reports false
// for an unknown level.
func SetLevel(name, level string) bool {
	l, ok := parseLevel(level)
	if !ok {
		return false
	}
	mu.Lock()
	defer mu.Unlock()

	if name == "" {
		config.Level = level
		rootVar.Set(l)
		for n, m := range modules {
			if _, override := config.Modules[n]; !override {
				m.level.Set(l)
			}
		}
		return true
	}
	if config.Modules == nil {
		config.Modules = map[string]string{}
	}
	config.Modules[name] = level
	if m, ok := modules[name]; ok {
		m.level.Set(l)
	}
	return true
}

// Levels returns the effective level of every module logger.
func Levels() map[string]string {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]string, len(modules)+1)
	out[""] = levelName(rootVar.Level())
	for name, m := range modules {
		out[name] = levelName(m.level.Level())
	}
	return out
}

// Recent returns up to n of the latest log entries, oldest first.
func Recent(n int) []Entry {
	return history.Recent(n)
}

// OnEntry registers fn to receive every entry written to the history.
// Passing nil removes the listener.
func OnEntry(fn func(Entry)) {
	mu.Lock()
	listener = fn
	mu.Unlock()
}

func notify(e Entry) {
	mu.RLock()
	fn := listener
	mu.RUnlock()
	if fn != nil {
		fn(e)
	}
}

// moduleLevel resolves the level for name. Callers hold mu.
func moduleLevel(name string) slog.Level {
	global := levelOr(config.Level, slog.LevelInfo)
	if s, ok := config.Modules[name]; ok {
		return levelOr(s, global)
	}
	return global
}

func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	var handlers []slog.Handler
	if stdoutAttached() {
		if format == "json" {
			handlers = append(handlers, slog.NewJSONHandler(os.Stdout, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stdout, opts))
		}
	}
	if JournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	handlers = append(handlers, newHistoryHandler(history, level))
	if len(handlers) == 1 {
		return handlers[0]
	}
	return NewFanout(handlers...)
}

// stdoutAttached is false when stdout is /dev/null or closed.
func stdoutAttached() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&os.ModeCharDevice != 0 || mode&os.ModeNamedPipe != 0 || mode&os.ModeSocket != 0 || mode.IsRegular()
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}

func levelOr(s string, fallback slog.Level) slog.Level {
	if l, ok := parseLevel(s); ok {
		return l
	}
	return fallback
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warn"
	case l >= slog.LevelInfo:
		return "info"
	}
	return "debug"
}
