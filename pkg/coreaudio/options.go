package coreaudio

import (
	"os"
	"time"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

const defaultSettleTimeout = 5 * time.Second

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer receives counts of property traffic and reconciliations.
// Implementations must be safe for concurrent use.
type Observer interface {
	PropertyAccess(op string, sel hal.Selector, ok bool)
	Reconciled(added, removed, total int)
}

type noopObserver struct{}

func (noopObserver) PropertyAccess(string, hal.Selector, bool) {}
func (noopObserver) Reconciled(int, int, int)                  {}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver sets the property traffic observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithSettleTimeout bounds how long CreateAggregateDevice waits for the new
// device to appear. Default is 5s.
func WithSettleTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.settleTimeout = d
		}
	}
}

// WithProcessID sets the PID used to recognise this process as the hog
// mode owner. Default is the current process.
func WithProcessID(pid int) Option {
	return func(r *Registry) { r.pid = int32(pid) }
}

func defaultPID() int32 { return int32(os.Getpid()) }
