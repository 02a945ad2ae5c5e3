package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string

	Port          string        `toml:"server.port" env:"SERVER_PORT"`
	Fixtures      string        `toml:"hal.fixtures" env:"HAL_FIXTURES"`
	SettleTimeout time.Duration `toml:"hal.settle_timeout" env:"HAL_SETTLE_TIMEOUT"`
	RateTolerance float64       `toml:"hal.rate_tolerance" env:"HAL_RATE_TOLERANCE"`
	ProcessID     int           `toml:"hal.process_id" env:"HAL_PROCESS_ID"`
	MQTTEnabled   bool          `toml:"mqtt.enabled" env:"MQTT_ENABLED"`
	MQTTTopics    []string      `toml:"mqtt.topics" env:"MQTT_TOPICS"`
}

const testTOML = `
[server]
port = ":9000"

[hal]
fixtures = "devices.toml"
settle_timeout = "3s"
rate_tolerance = 1
process_id = 77

[mqtt]
enabled = true
topics = ["audiohal/devices", "audiohal/events"]

[logging]
level = "debug"
format = "json"

[logging.modules]
registry = "warn"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, testTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := testOptions{
		Config:        opts.Config,
		Port:          ":9000",
		Fixtures:      "devices.toml",
		SettleTimeout: 3 * time.Second,
		RateTolerance: 1,
		ProcessID:     77,
		MQTTEnabled:   true,
		MQTTTopics:    []string{"audiohal/devices", "audiohal/events"},
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("got %+v\nwant %+v", *opts, want)
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	t.Setenv("AUDIOHAL_SERVER_PORT", ":9100")
	t.Setenv("AUDIOHAL_HAL_SETTLE_TIMEOUT", "250ms")
	t.Setenv("AUDIOHAL_MQTT_TOPICS", "a, b")

	opts := &testOptions{Config: writeConfig(t, testTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.Port != ":9100" {
		t.Errorf("Port = %q, want :9100", opts.Port)
	}
	if opts.SettleTimeout != 250*time.Millisecond {
		t.Errorf("SettleTimeout = %v, want 250ms", opts.SettleTimeout)
	}
	if !reflect.DeepEqual(opts.MQTTTopics, []string{"a", "b"}) {
		t.Errorf("MQTTTopics = %v", opts.MQTTTopics)
	}
	if opts.Fixtures != "devices.toml" {
		t.Errorf("Fixtures = %q, unset env must keep the file value", opts.Fixtures)
	}
}

func TestLoadConfigKeepsChangedFlags(t *testing.T) {
	t.Setenv("AUDIOHAL_SERVER_PORT", ":9100")

	opts := &testOptions{Config: writeConfig(t, testTOML)}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.Port, "port", ":8080", "")
	cmd.Flags().IntVar(&opts.ProcessID, "process-id", 0, "")
	if err := cmd.Flags().Set("port", ":1234"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.Port != ":1234" {
		t.Errorf("Port = %q, flag set on the command line must win", opts.Port)
	}
	if opts.ProcessID != 77 {
		t.Errorf("ProcessID = %d, unchanged flag should take the file value", opts.ProcessID)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		opts := &testOptions{Config: filepath.Join(t.TempDir(), "absent.toml"), Port: ":8080"}
		if err := LoadConfig(opts, nil); err != nil {
			t.Fatalf("missing file should be ignored: %v", err)
		}
		if opts.Port != ":8080" {
			t.Errorf("Port = %q, defaults must survive", opts.Port)
		}
	})

	t.Run("invalid toml", func(t *testing.T) {
		opts := &testOptions{Config: writeConfig(t, "[server\nport = ")}
		if err := LoadConfig(opts, nil); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		opts := &testOptions{Config: writeConfig(t, "[hal]\nprocess_id = \"seventy\"\n")}
		if err := LoadConfig(opts, nil); err == nil {
			t.Fatal("expected type error")
		}
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("AUDIOHAL_HAL_PROCESS_ID", "many")
		if err := LoadConfig(&testOptions{}, nil); err == nil {
			t.Fatal("expected env parse error")
		}
	})

	t.Run("not a struct pointer", func(t *testing.T) {
		if err := LoadConfig(testOptions{}, nil); err == nil {
			t.Fatal("expected error for non-pointer")
		}
	})
}

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"hal": map[string]any{"fixtures": "devices.toml"},
		"top": "value",
	}
	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"hal.fixtures", "devices.toml", true},
		{"top", "value", true},
		{"hal.missing", nil, false},
		{"top.nested", nil, false},
		{"absent.key", nil, false},
	}
	for _, tt := range tests {
		got, ok := lookup(doc, tt.path)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("lookup(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFlagName(t *testing.T) {
	for field, want := range map[string]string{
		"Port":          "port",
		"SettleTimeout": "settle-timeout",
		"MQTTEnabled":   "mqtt-enabled",
		"LoggingAPI":    "logging-api",
		"HTTPPort":      "http-port",
	} {
		if got := flagName(field); got != want {
			t.Errorf("flagName(%q) = %q, want %q", field, got, want)
		}
	}
}

func TestLoggingConfig(t *testing.T) {
	cfg := LoggingConfig(writeConfig(t, testTOML))
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("level/format = %q/%q", cfg.Level, cfg.Format)
	}
	if cfg.Modules["registry"] != "warn" {
		t.Errorf("registry level = %q, want warn", cfg.Modules["registry"])
	}

	def := LoggingConfig("")
	if def.Level != "info" || def.Format != "text" || len(def.Modules) != 0 {
		t.Errorf("defaults = %+v", def)
	}
	if bad := LoggingConfig(writeConfig(t, "[logging\n")); bad.Level != "info" {
		t.Errorf("malformed file should yield defaults, got %+v", bad)
	}
}
