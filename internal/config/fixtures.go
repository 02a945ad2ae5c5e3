package config

import (
	"log/slog"

	"github.com/smazurov/audiohal/pkg/coreaudio/simhal"
)

// FixtureTarget receives reloaded device fixtures. *simhal.HAL implements it.
type FixtureTarget interface {
	Apply(simhal.Fixture) error
}

// WatchFixtures keeps target in sync with the fixture file at path.
// Devices added to or removed from the file appear and disappear on the
// simulated HAL, which announces them as device-list changes.
func WatchFixtures(path string, target FixtureTarget, logger *slog.Logger, opts ...WatcherOption[simhal.Fixture]) (*Watcher[simhal.Fixture], error) {
	w := NewWatcher(path, simhal.LoadFixture, logger, opts...)
	w.OnReload(func(f simhal.Fixture) {
		if err := target.Apply(f); err != nil {
			logger.Warn("Fixture rejected", "path", path, "error", err)
			return
		}
		logger.Info("Fixture applied", "path", path, "devices", len(f.Devices))
	})
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}
