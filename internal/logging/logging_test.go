package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func reset() {
	mu.Lock()
	modules = map[string]*module{}
	history = NewHistory(historySize)
	listener = nil
	mu.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	reset()
	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"registry": "debug", "api": "warn"},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"registry", true, true, true},
		{"api", false, false, true},
		{"simhal", false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			h := GetLogger(tt.module).Handler()
			ctx := context.Background()
			if got := h.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := h.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := h.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestLoggerCreatedBeforeInitialize(t *testing.T) {
	reset()
	Initialize(Config{Level: "info"})
	logger := GetLogger("early")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug enabled before override")
	}

	Initialize(Config{Level: "info", Modules: map[string]string{"early": "debug"}})
	if !GetLogger("early").Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Initialize did not apply the override to an existing module")
	}
}

func TestSetLevel(t *testing.T) {
	reset()
	Initialize(Config{Level: "info", Modules: map[string]string{"api": "error"}})
	reg := GetLogger("registry")
	api := GetLogger("api")

	if SetLevel("registry", "loud") {
		t.Fatal("unknown level accepted")
	}
	if !SetLevel("registry", "debug") {
		t.Fatal("SetLevel(registry, debug) = false")
	}
	if !reg.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("registry logger did not pick up the new level")
	}

	if !SetLevel("", "warn") {
		t.Fatal("SetLevel(global, warn) = false")
	}
	levels := Levels()
	if levels[""] != "warn" {
		t.Errorf("global level = %q, want warn", levels[""])
	}
	if levels["api"] != "error" {
		t.Errorf("api level = %q, overridden module must keep its level", levels["api"])
	}
	if levels["registry"] != "debug" {
		t.Errorf("registry level = %q, want debug", levels["registry"])
	}
	if api.Handler().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("api warn enabled despite error override")
	}
}

func TestHistoryKeepsNewest(t *testing.T) {
	h := NewHistory(3)
	if got := h.Recent(0); len(got) != 0 {
		t.Fatalf("empty history returned %d entries", len(got))
	}
	for _, msg := range []string{"a", "b", "c", "d"} {
		h.Add(Entry{Message: msg})
	}

	got := h.Recent(0)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"b", "c", "d"} {
		if got[i].Message != want {
			t.Errorf("entry %d = %q, want %q", i, got[i].Message, want)
		}
	}
	if last := h.Recent(1); len(last) != 1 || last[0].Message != "d" {
		t.Errorf("Recent(1) = %+v", last)
	}
}

func TestHistoryHandlerRecordsAttributes(t *testing.T) {
	h := NewHistory(10)
	var seen []Entry
	reset()
	OnEntry(func(e Entry) { seen = append(seen, e) })
	defer OnEntry(nil)

	logger := slog.New(newHistoryHandler(h, slog.LevelDebug)).With("module", "registry")
	logger.WithGroup("device").Info("Device added",
		"uid", "usb-mic",
		"latency", 5*time.Millisecond,
		"error", errors.New("boom"))

	entries := h.Recent(0)
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Module != "registry" || e.Level != "info" || e.Message != "Device added" {
		t.Errorf("entry = %+v", e)
	}
	want := map[string]any{"device.uid": "usb-mic", "device.latency": "5ms", "device.error": "boom"}
	for k, v := range want {
		if e.Attrs[k] != v {
			t.Errorf("attr %s = %v, want %v", k, e.Attrs[k], v)
		}
	}
	if len(seen) != 1 {
		t.Errorf("listener saw %d entries, want 1", len(seen))
	}
}

func TestFanoutRespectsLevels(t *testing.T) {
	quiet := NewHistory(10)
	loud := NewHistory(10)
	f := NewFanout(newHistoryHandler(quiet, slog.LevelWarn), newHistoryHandler(loud, slog.LevelDebug))

	logger := slog.New(f)
	logger.Debug("detail")
	logger.Warn("problem")

	if n := len(quiet.Recent(0)); n != 1 {
		t.Errorf("warn handler got %d entries, want 1", n)
	}
	if n := len(loud.Recent(0)); n != 2 {
		t.Errorf("debug handler got %d entries, want 2", n)
	}
	if f.Enabled(context.Background(), slog.LevelDebug-1) {
		t.Error("fanout enabled below every handler's level")
	}
}

func TestJournalFields(t *testing.T) {
	fields := map[string]string{}
	journalFields(fields, "", slog.Int("id", 42))
	journalFields(fields, "", slog.Group("format", slog.Float64("rate", 48000), slog.Bool("mixable", true)))
	journalFields(fields, "req_", slog.String("uid", "usb-mic"))

	want := map[string]string{
		"ID":             "42",
		"FORMAT_RATE":    "48000",
		"FORMAT_MIXABLE": "true",
		"REQ_UID":        "usb-mic",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("%s = %q, want %q", k, fields[k], v)
		}
	}
	if priorityOf(slog.LevelWarn+1) != priorityOf(slog.LevelWarn) {
		t.Error("levels between warn and error map to warning")
	}
}
