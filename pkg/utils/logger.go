package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger writing to stderr, so command output on
// stdout stays clean. Debug selects the development config (console, debug
// level); otherwise the production config (JSON, info level) is used.
func NewLogger(debug bool) (*zap.Logger, error) {
	opts := []zap.Option{zap.Fields(zap.String("service", "yomu"))}
	if debug {
		return zap.NewDevelopment(opts...)
	}
	return zap.NewProduction(opts...)
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
