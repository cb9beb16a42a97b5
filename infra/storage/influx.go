package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/ferntree/core/factory"
	"github.com/kilianp07/ferntree/core/model"
	corestorage "github.com/kilianp07/ferntree/core/storage"
	"github.com/kilianp07/ferntree/infra/logger"
)

// Measurement is the InfluxDB measurement holding timestep points.
const Measurement = "ferntree_timestep"

// InfluxConfig configures the InfluxDB sink.
type InfluxConfig struct {
	RunID     string `json:"run_id"`
	URL       string `json:"url"`
	Token     string `json:"token"`
	Org       string `json:"org"`
	Bucket    string `json:"bucket"`
	House     string `json:"house"`
	BatchSize uint   `json:"batch_size"`
	// Fallback replaces an unreachable server with a no-op sink instead of
	// failing the run.
	Fallback bool `json:"fallback"`
	// Log receives asynchronous write errors. Nil discards them.
	Log logger.Logger `json:"-"`
}

// Validate checks the configuration.
func (c InfluxConfig) Validate() error {
	switch {
	case c.URL == "":
		return model.NewConfigError("storage.influx.url", "required")
	case c.Org == "":
		return model.NewConfigError("storage.influx.org", "required")
	case c.Bucket == "":
		return model.NewConfigError("storage.influx.bucket", "required")
	}
	return nil
}

// InfluxSink writes timesteps to InfluxDB through the non-blocking write API.
// Asynchronous write errors are logged and reported by the next Flush.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	runID    string
	house    string
	log      logger.Logger

	mu      sync.Mutex
	lastErr error
	done    chan struct{}
}

// NewInfluxSink creates a sink for the configured endpoint. No request is
// made until the first batch is full or Flush is called.
func NewInfluxSink(cfg InfluxConfig) (*InfluxSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	batch := cfg.BatchSize
	if batch == 0 {
		batch = corestorage.DefaultBatchSize
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	opts := influxdb2.DefaultOptions().
		SetHTTPClient(&http.Client{Timeout: 5 * time.Second}).
		SetBatchSize(batch).
		SetFlushInterval(60_000)
	client := influxdb2.NewClientWithOptions(base, cfg.Token, opts)
	log := cfg.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		runID:    cfg.RunID,
		house:    cfg.House,
		log:      log,
		done:     make(chan struct{}),
	}
	errCh := s.writeAPI.Errors()
	go func() {
		defer close(s.done)
		for err := range errCh {
			s.log.Errorf("influx write: %v", err)
			s.mu.Lock()
			s.lastErr = err
			s.mu.Unlock()
		}
	}()
	return s, nil
}

// NewInfluxSinkWithFallback pings the server and returns a NopWriter when the
// health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) (corestorage.TimestepWriter, error) {
	sink, err := NewInfluxSink(cfg)
	if err != nil {
		return nil, err
	}
	if err := sink.Ping(context.Background()); err != nil {
		sink.log.Errorf("%v, timesteps will not be stored in influx", err)
		_ = sink.Close()
		return corestorage.NopWriter{}, nil
	}
	return sink, nil
}

// Ping checks the server health.
func (s *InfluxSink) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	health, err := s.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("influx health check: %w", err)
	}
	if health.Status != "pass" {
		return fmt.Errorf("influx health status: %s", health.Status)
	}
	return nil
}

// TimestepPoint converts ts into a line protocol point.
func TimestepPoint(runID, house string, ts model.Timestep) *write.Point {
	p := write.NewPointWithMeasurement(Measurement).
		AddTag("run_id", runID)
	if house != "" {
		p = p.AddTag("house", house)
	}
	p = p.AddField("step", ts.Step)
	for _, c := range columns(ts) {
		p = p.AddField(c.name, round3(c.value))
	}
	return p.SetTime(ts.Time)
}

// WriteTimestep queues ts for the next batch.
func (s *InfluxSink) WriteTimestep(_ context.Context, ts model.Timestep) error {
	s.writeAPI.WritePoint(TimestepPoint(s.runID, s.house, ts))
	return nil
}

// Flush sends the queued points and returns the last asynchronous error.
func (s *InfluxSink) Flush(context.Context) error {
	s.writeAPI.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.lastErr
	s.lastErr = nil
	return err
}

// Close flushes and releases the client.
func (s *InfluxSink) Close() error {
	s.writeAPI.Flush()
	s.client.Close()
	select {
	case <-s.done:
	case <-time.After(time.Second):
	}
	return nil
}

func newInfluxWriter(conf map[string]any) (corestorage.TimestepWriter, error) {
	var cfg InfluxConfig
	if err := factory.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	cfg.Log = sinkLogger(conf, "influx")
	if cfg.Fallback {
		return NewInfluxSinkWithFallback(cfg)
	}
	return NewInfluxSink(cfg)
}
