// Package logging provides structured logging for modemctl and the modem
// emulator.
//
// This package wraps a global zap logger. It is silent unless a level is
// chosen through a flag or MODEMCTL_LOG_LEVEL, so one-shot commands print
// only their results.
//
// # Log Levels
//
//   - Debug: every device request, MQTT payloads, stream frames
//   - Info: emulator lifecycle, broker connection changes
//   - Warn: malformed device replies, dropped stream clients
//   - Error: startup and shutdown failures
//
// # Console UI
//
// The terminal UI owns the screen, so when it runs logs must go to a file:
//
//	modemctl --log-level debug --log-file /tmp/modemctl.log
//
// # Structured Logging
//
//	logging.Info("Broker connected",
//	    zap.String("broker", "mqtt://127.0.0.1:1883"),
//	    zap.Int("topics", 3),
//	)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Configure is not and
// should run once at startup.
package logging
