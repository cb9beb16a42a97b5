package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ferntree/config"
	"github.com/kilianp07/ferntree/core/logger"
	"github.com/kilianp07/ferntree/core/metrics"
	"github.com/kilianp07/ferntree/core/simhost"
	"github.com/kilianp07/ferntree/core/storage"
	infralogger "github.com/kilianp07/ferntree/infra/logger"
	"github.com/kilianp07/ferntree/infra/profile"

	// register the built-in sinks and recorders
	_ "github.com/kilianp07/ferntree/infra/kpi"
	_ "github.com/kilianp07/ferntree/infra/metrics"
	_ "github.com/kilianp07/ferntree/infra/storage"
)

// shutdownTimeout bounds the final flush of the sinks once a run ends.
const shutdownTimeout = 30 * time.Second

// Result reports the outcome of one run. Partial results are never
// returned: OK is false whenever Err is set.
type Result struct {
	OK        bool
	Timesteps int
	RunID     string
	Err       error
}

// Runner triggers simulation runs. The optional fields replace the
// collaborators named in the configuration.
type Runner struct {
	// Log is the base logger. When nil one is created from the logging
	// section of the configuration.
	Log logger.Logger
	// Output receives the log lines of a created logger. Defaults to stdout.
	Output io.Writer

	Profiles profile.Provider
	Weather  simhost.WeatherSource
	Writer   storage.TimestepWriter
	Recorder metrics.RunRecorder

	// NewRunID generates run identifiers.
	NewRunID func() string
}

// NewRunner returns a runner logging through log.
func NewRunner(log logger.Logger) *Runner {
	return &Runner{Log: log}
}

// Run loads the configuration at path and simulates one year.
func (r *Runner) Run(ctx context.Context, path string) Result {
	cfg, err := config.Load(path)
	if err != nil {
		return Result{Err: fmt.Errorf("load config: %w", err)}
	}
	return r.RunConfig(ctx, cfg)
}

// RunConfig simulates one year of cfg.
func (r *Runner) RunConfig(ctx context.Context, cfg *config.Config) Result {
	runID := r.runID()
	log := r.logger(cfg.Logging).With("run_id", runID)
	res := Result{RunID: runID}

	b := NewSimBuilder(cfg, runID, log).
		WithProfiles(r.Profiles).
		WithWeather(r.Weather).
		WithWriter(r.Writer).
		WithRecorder(r.Recorder)
	host, err := b.Build(ctx)
	if err != nil {
		log.Errorf("build simulation: %v", err)
		res.Err = fmt.Errorf("build simulation: %w", err)
		return res
	}

	n, runErr := r.simulate(ctx, host)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := host.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown: %w", err)
	}
	if runErr != nil {
		log.Errorf("run failed after %d steps: %v", n, runErr)
		res.Err = runErr
		return res
	}
	log.Infof("run finished: %d timesteps", n)
	res.OK = true
	res.Timesteps = n
	return res
}

func (r *Runner) simulate(ctx context.Context, host *simhost.Host) (int, error) {
	if err := host.Startup(ctx); err != nil {
		return 0, fmt.Errorf("startup: %w", err)
	}
	return host.Run(ctx)
}

func (r *Runner) runID() string {
	if r.NewRunID != nil {
		return r.NewRunID()
	}
	return uuid.NewString()
}

func (r *Runner) logger(cfg config.LoggingConfig) logger.Logger {
	if r.Log != nil {
		return r.Log
	}
	out := r.Output
	if out == nil {
		out = os.Stdout
	}
	return infralogger.NewZerologLoggerWithFormat("ferntree", out, cfg.Level, cfg.Format)
}
