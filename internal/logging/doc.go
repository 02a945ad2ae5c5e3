// Package logging provides the module loggers of the audiohal service.
//
// Every package asks for a named logger once and keeps it:
//
//	logger := logging.GetLogger("registry")
//	logger.Info("Device added", "uid", uid)
//
// Records go to stdout (text or JSON), to the systemd journal when journald
// is reachable, and to an in-memory history that the HTTP API serves and
// streams. Levels are global with per-module overrides and can be changed
// at runtime with SetLevel:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	registry = "debug"
//	api = "warn"
//
// Journal records carry SYSLOG_IDENTIFIER=audiohal and one upper-cased
// field per attribute:
//
//	journalctl -t audiohal MODULE=registry
package logging
