package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier reports service state to systemd over NOTIFY_SOCKET.
// Outside a notify-type unit every call is a no-op.
type Notifier struct {
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotifier creates a notifier that logs to logger.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Ready sends READY=1 and starts the watchdog keepalive when the unit
// sets WatchdogSec. It reports whether systemd received the notification.
func (n *Notifier) Ready() bool {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		n.logger.Warn("Failed to notify systemd", "error", err)
		return false
	}
	if !sent {
		return false
	}
	n.logger.Debug("Notified systemd of readiness")

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return true
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.done = make(chan struct{})
	go n.keepalive(ctx, interval/2)
	return true
}

func (n *Notifier) keepalive(ctx context.Context, every time.Duration) {
	defer close(n.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				n.logger.Warn("Watchdog notification failed", "error", err)
			}
		}
	}
}

// Stopping sends STOPPING=1 and ends the watchdog keepalive.
func (n *Notifier) Stopping() {
	if n.cancel != nil {
		n.cancel()
		<-n.done
		n.cancel = nil
	}
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		n.logger.Warn("Failed to notify systemd", "error", err)
	}
}
