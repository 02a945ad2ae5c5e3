package api

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/audiohal/internal/events"
)

func newTestHTTPServer(t *testing.T, metrics http.Handler) (*httptest.Server, *events.Bus) {
	t.Helper()
	_, reg := newTestHAL(t)
	bus := events.New()
	server := NewServer(&Options{
		AuthUsername:   "test",
		AuthPassword:   "secret",
		Registry:       reg,
		Bus:            bus,
		MetricsHandler: metrics,
	})
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, bus
}

func TestBasicAuth(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "audiohal_registry_devices 3")
	})
	ts, _ := newTestHTTPServer(t, metrics)
	credentials := base64.StdEncoding.EncodeToString([]byte("test:secret"))
	wrong := base64.StdEncoding.EncodeToString([]byte("test:nope"))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"health is public", "/api/health", "", http.StatusOK},
		{"metrics are public", "/metrics", "", http.StatusOK},
		{"missing credentials", "/api/devices", "", http.StatusUnauthorized},
		{"wrong password", "/api/devices", "Basic " + wrong, http.StatusUnauthorized},
		{"bearer token", "/api/devices", "Bearer abc", http.StatusUnauthorized},
		{"valid credentials", "/api/devices", "Basic " + credentials, http.StatusOK},
		{"query credentials", "/api/devices?auth=" + credentials, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+tt.path, nil)
			if err != nil {
				t.Fatal(err)
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, resp.StatusCode)
			}
			if tt.want == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("Expected WWW-Authenticate header")
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestHTTPServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/devices", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected allow origin *, got %q", got)
	}
}

func readSSE(t *testing.T, body io.Reader) <-chan string {
	t.Helper()
	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data:") {
				lines <- line
			}
		}
		close(lines)
	}()
	return lines
}

func awaitLine(t *testing.T, lines <-chan string, contains string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("Stream closed before %q", contains)
			}
			if strings.Contains(line, contains) {
				return
			}
		case <-timeout:
			t.Fatalf("Timeout waiting for %q", contains)
		}
	}
}

func TestSSEDeviceEvents(t *testing.T) {
	ts, bus := newTestHTTPServer(t, nil)
	credentials := base64.StdEncoding.EncodeToString([]byte("test:secret"))

	resp, err := http.Get(fmt.Sprintf("%s/api/events?auth=%s", ts.URL, credentials))
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	lines := readSSE(t, resp.Body)
	awaitLine(t, lines, "NullAudioDevice_UID")

	events.Publish(bus, events.MuteChangedEvent{UID: "acme-studio", Scope: "output", Channel: 1, Muted: true})
	awaitLine(t, lines, `"muted":true`)
}

func TestSSELogStream(t *testing.T) {
	ts, bus := newTestHTTPServer(t, nil)
	credentials := base64.StdEncoding.EncodeToString([]byte("test:secret"))

	// Headers are only flushed with the first event, so keep publishing
	// until the client sees one.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				events.Publish(bus, events.LogEntryEvent{Level: "info", Module: "test", Message: "hello from the bus"})
			}
		}
	}()

	resp, err := http.Get(fmt.Sprintf("%s/api/logs/stream?auth=%s", ts.URL, credentials))
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	awaitLine(t, readSSE(t, resp.Body), "hello from the bus")
}
