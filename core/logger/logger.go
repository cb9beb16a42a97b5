package logger

// Logger exposes logging methods for common severity levels. A Logger is
// created per simulation run and handed down to every component; there is no
// package-level logger.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// With returns a child logger carrying an additional field.
	With(key, value string) Logger
}
