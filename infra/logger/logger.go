package logger

import corelogger "github.com/kilianp07/ferntree/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
func (n NopLogger) With(string, string) Logger  { return n }

// New returns a stderr Logger for command line tools outside a simulation
// run. The output format is chosen from the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
