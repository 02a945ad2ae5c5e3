package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Entry is one log record kept in the history.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Module  string         `json:"module,omitempty"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// History keeps the most recent entries in a fixed-size ring.
type History struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewHistory creates a history holding up to size entries.
func NewHistory(size int) *History {
	return &History{entries: make([]Entry, max(size, 1))}
}

// Add appends e, evicting the oldest entry when full.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
	h.mu.Unlock()
}

// Recent returns up to n of the newest entries, oldest first. n <= 0
// returns everything held.
func (h *History) Recent(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	var all []Entry
	if h.full {
		all = append(append(all, h.entries[h.next:]...), h.entries[:h.next]...)
	} else {
		all = append(all, h.entries[:h.next]...)
	}
	if n > 0 && n < len(all) {
		all = all[len(all)-n:]
	}
	return all
}

type historyHandler struct {
	history *History
	level   slog.Leveler
	module  string
	attrs   map[string]any
	group   string
}

func newHistoryHandler(h *History, level slog.Leveler) *historyHandler {
	return &historyHandler{history: h, level: level}
}

func (h *historyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *historyHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{
		Time:    r.Time,
		Level:   levelName(r.Level),
		Module:  h.module,
		Message: r.Message,
	}
	if len(h.attrs) > 0 || r.NumAttrs() > 0 {
		e.Attrs = make(map[string]any, len(h.attrs)+r.NumAttrs())
		for k, v := range h.attrs {
			e.Attrs[k] = v
		}
		r.Attrs(func(a slog.Attr) bool {
			flatten(e.Attrs, h.group, a)
			return true
		})
	}
	h.history.Add(e)
	notify(e)
	return nil
}

func (h *historyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make(map[string]any, len(h.attrs)+len(attrs))
	for k, v := range h.attrs {
		next.attrs[k] = v
	}
	for _, a := range attrs {
		if a.Key == "module" && h.group == "" {
			next.module = a.Value.String()
			continue
		}
		flatten(next.attrs, h.group, a)
	}
	return &next
}

func (h *historyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

func flatten(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			flatten(dst, prefix+a.Key+".", ga)
		}
	case slog.KindTime:
		dst[prefix+a.Key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		dst[prefix+a.Key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			dst[prefix+a.Key] = err.Error()
		} else {
			dst[prefix+a.Key] = a.Value.Any()
		}
	default:
		dst[prefix+a.Key] = a.Value.Any()
	}
}
