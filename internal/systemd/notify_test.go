package systemd

import (
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNotifierWithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	n := NewNotifier(slog.Default())

	if n.Ready() {
		t.Error("Expected Ready to report false without NOTIFY_SOCKET")
	}
	n.Stopping()
}

func TestNotifierSendsReady(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Skipf("unixgram sockets unavailable: %v", err)
	}
	defer conn.Close()

	t.Setenv("NOTIFY_SOCKET", path)
	t.Setenv("WATCHDOG_USEC", "")
	n := NewNotifier(slog.Default())

	if !n.Ready() {
		t.Fatal("Expected Ready to reach the socket")
	}
	n.Stopping()

	if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	var got []string
	buf := make([]byte, 256)
	for len(got) < 2 {
		size, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("Read failed after %v: %v", got, err)
		}
		got = append(got, strings.TrimSpace(string(buf[:size])))
	}
	if got[0] != "READY=1" || got[1] != "STOPPING=1" {
		t.Errorf("Expected READY=1 then STOPPING=1, got %v", got)
	}
}
