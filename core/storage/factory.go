package storage

import (
	"fmt"
	"maps"

	"github.com/kilianp07/ferntree/core/factory"
	"github.com/kilianp07/ferntree/core/logger"
)

// RunIDKey is injected into every sink configuration so that sinks can tag
// the records of a run.
const RunIDKey = "run_id"

// LoggerKey carries the run logger in a sink configuration.
const LoggerKey = "logger"

var writerRegistry = factory.NewRegistry[TimestepWriter]()

// RegisterWriter adds a writer factory identified by name.
func RegisterWriter(name string, f factory.Factory[TimestepWriter]) error {
	return writerRegistry.Register(name, f)
}

// Writers lists the registered sink types.
func Writers() []string { return writerRegistry.Names() }

// SinkLogger returns the run logger handed to a sink factory, or nil.
func SinkLogger(conf map[string]any) logger.Logger {
	l, _ := conf[LoggerKey].(logger.Logger)
	return l
}

// NewWriter builds the configured sinks for run runID. Sinks log through
// log when it is not nil. No sinks yields a NopWriter and several sinks a
// MultiWriter.
func NewWriter(cfgs []factory.ModuleConfig, runID string, log logger.Logger) (TimestepWriter, error) {
	if len(cfgs) == 0 {
		return NopWriter{}, nil
	}
	writers := make([]TimestepWriter, 0, len(cfgs))
	for _, c := range cfgs {
		conf := maps.Clone(c.Conf)
		if conf == nil {
			conf = map[string]any{}
		}
		conf[RunIDKey] = runID
		if log != nil {
			conf[LoggerKey] = log
		}
		w, err := writerRegistry.Create(factory.ModuleConfig{Type: c.Type, Conf: conf})
		if err != nil {
			for _, open := range writers {
				_ = open.Close()
			}
			return nil, fmt.Errorf("storage sink %s: %w", c.Type, err)
		}
		writers = append(writers, w)
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return NewMultiWriter(writers...), nil
}
