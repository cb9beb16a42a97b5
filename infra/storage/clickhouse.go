package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/kilianp07/ferntree/core/factory"
	"github.com/kilianp07/ferntree/core/model"
	corestorage "github.com/kilianp07/ferntree/core/storage"
)

const clickhouseSchema = `CREATE TABLE IF NOT EXISTS %s (
        run_id String,
        step UInt32,
        time DateTime64(3, 'UTC'),
        t_amb Float64,
        p_solar Float64,
        t_in Float64,
        t_en Float64,
        p_heat_th Float64,
        p_heat_el Float64,
        p_base Float64,
        p_pv Float64,
        p_bat Float64,
        soc_bat Float64,
        fill_level Float64,
        p_load_pred Float64
    ) ENGINE = MergeTree()
    ORDER BY (run_id, step)`

// ClickHouseConfig configures the ClickHouse sink.
type ClickHouseConfig struct {
	RunID     string `json:"run_id"`
	Addr      string `json:"addr"`
	Database  string `json:"database"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Table     string `json:"table"`
	BatchSize int    `json:"batch_size"`
}

// SetDefaults fills the database and table names.
func (c *ClickHouseConfig) SetDefaults() {
	if c.Database == "" {
		c.Database = "default"
	}
	if c.Username == "" {
		c.Username = "default"
	}
	if c.Table == "" {
		c.Table = "ferntree_timesteps"
	}
}

// Validate checks the configuration.
func (c ClickHouseConfig) Validate() error {
	if c.Addr == "" {
		return model.NewConfigError("storage.clickhouse.addr", "required")
	}
	if c.BatchSize < 0 {
		return model.NewConfigError("storage.clickhouse.batch_size", "must not be negative")
	}
	return nil
}

// ClickHouseSink appends timesteps to a MergeTree table in batches.
type ClickHouseSink struct {
	conn  driver.Conn
	runID string
	table string
	batch *corestorage.Batcher
}

// NewClickHouseSink connects, pings and ensures the table exists.
func NewClickHouseSink(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseSink, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	if err := conn.Exec(ctx, fmt.Sprintf(clickhouseSchema, cfg.Table)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	s := &ClickHouseSink{conn: conn, runID: cfg.RunID, table: cfg.Table}
	s.batch = corestorage.NewBatcher(cfg.BatchSize, s.send)
	return s, nil
}

// clickhouseRow returns the column values of ts in table order.
func clickhouseRow(runID string, ts model.Timestep) []any {
	row := []any{runID, uint32(ts.Step), ts.Time}
	for _, c := range columns(ts) {
		row = append(row, c.value)
	}
	return row
}

func (s *ClickHouseSink) send(ctx context.Context, batch []model.Timestep) error {
	b, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+s.table)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, ts := range batch {
		if err := b.Append(clickhouseRow(s.runID, ts)...); err != nil {
			_ = b.Abort()
			return fmt.Errorf("append step %d: %w", ts.Step, err)
		}
	}
	return b.Send()
}

// WriteTimestep buffers ts until the batch is full.
func (s *ClickHouseSink) WriteTimestep(ctx context.Context, ts model.Timestep) error {
	return s.batch.Add(ctx, ts)
}

// Flush sends the buffered rows.
func (s *ClickHouseSink) Flush(ctx context.Context) error {
	return s.batch.Flush(ctx)
}

// Close sends the buffered rows and closes the connection.
func (s *ClickHouseSink) Close() error {
	ferr := s.batch.Flush(context.Background())
	cerr := s.conn.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

func newClickHouseWriter(conf map[string]any) (corestorage.TimestepWriter, error) {
	var cfg ClickHouseConfig
	if err := factory.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	return NewClickHouseSink(context.Background(), cfg)
}
