package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "MODEMCTL_LOG_LEVEL"

// LogFileEnvVar names a file to receive log output. The console UI owns the
// terminal, so anything logged while it runs must go to a file.
const LogFileEnvVar = "MODEMCTL_LOG_FILE"

// Options selects the level and destination of the global logger.
type Options struct {
	// Level is "debug", "info", "warn" or "error". Empty falls back to
	// MODEMCTL_LOG_LEVEL, and to silent mode when that is unset too.
	Level string

	// File receives log output when set. Empty falls back to
	// MODEMCTL_LOG_FILE, then to Stream.
	File string

	// Stream is "stdout" or "stderr" and is used when no file is set.
	Stream string

	// JSON selects the JSON encoder instead of the console one.
	JSON bool
}

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Configure builds the global logger from opts.
func Configure(opts Options) error {
	if opts.Level == "" {
		opts.Level = os.Getenv(LogLevelEnvVar)
	}
	if opts.File == "" {
		opts.File = os.Getenv(LogFileEnvVar)
	}

	// If still no level, use silent mode (nop logger)
	if opts.Level == "" {
		logger = zap.NewNop()
		return nil
	}

	output := opts.Stream
	if opts.File != "" {
		output = opts.File
	}
	if output == "" {
		output = "stderr"
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(opts.Level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
	if opts.JSON {
		config.Encoding = "json"
		config.EncoderConfig = zap.NewProductionEncoderConfig()
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	if opts.File == "" && !opts.JSON {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built

	return nil
}

// Initialize creates a stderr logger with the specified level.
// If level is empty, it checks MODEMCTL_LOG_LEVEL.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	return Configure(Options{Level: level})
}

// SetLogger replaces the global logger
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogConnection logs a connection event
func LogConnection(remoteAddr string, event string) {
	Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogMQTTMessage logs a message seen on the broker link. Payloads are
// included as text when printable and as hex otherwise.
func LogMQTTMessage(direction, topic string, payload []byte) {
	fields := []zap.Field{
		zap.String("direction", direction),
		zap.String("topic", topic),
		zap.Int("length", len(payload)),
	}
	if isPrintable(payload) {
		fields = append(fields, zap.String("payload", truncate(string(payload), 256)))
	} else {
		fields = append(fields, zap.String("hex_dump", hexDump(payload)))
	}
	Debug("MQTT message", fields...)
}

// LogWebSocketMessage logs a frame on a message stream
func LogWebSocketMessage(remoteAddr string, direction string, messageType int, data []byte) {
	fields := []zap.Field{
		zap.String("remote_addr", remoteAddr),
		zap.String("direction", direction),
		zap.String("message_type", wsMessageTypeName(messageType)),
		zap.Int("length", len(data)),
	}
	if messageType == 1 {
		fields = append(fields, zap.String("content", truncate(string(data), 256)))
	} else if GetLogger().Core().Enabled(zapcore.DebugLevel) {
		fields = append(fields, zap.String("hex_dump", hexDump(data)))
	}
	Debug("WebSocket message", fields...)
}

func wsMessageTypeName(msgType int) string {
	switch msgType {
	case 1:
		return "text"
	case 2:
		return "binary"
	case 8:
		return "close"
	case 9:
		return "ping"
	case 10:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", msgType)
	}
}

func isPrintable(data []byte) bool {
	for _, b := range data {
		if (b < 32 || b > 126) && b != '\n' && b != '\r' && b != '\t' {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	// Limit to first 256 bytes for logging
	if len(data) > 256 {
		return hex.EncodeToString(data[:256]) + "..."
	}
	return hex.EncodeToString(data)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
