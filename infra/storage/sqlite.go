package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/ferntree/core/factory"
	"github.com/kilianp07/ferntree/core/model"
	corestorage "github.com/kilianp07/ferntree/core/storage"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS timesteps (
        run_id TEXT,
        step INTEGER,
        time INTEGER,
        t_amb REAL,
        p_solar REAL,
        t_in REAL,
        t_en REAL,
        p_heat_th REAL,
        p_heat_el REAL,
        p_base REAL,
        p_pv REAL,
        p_bat REAL,
        soc_bat REAL,
        fill_level REAL,
        p_load_pred REAL,
        PRIMARY KEY(run_id, step)
    );`

// SQLiteConfig configures the SQLite sink.
type SQLiteConfig struct {
	RunID     string `json:"run_id"`
	Path      string `json:"path"`
	BatchSize int    `json:"batch_size"`
}

// Validate checks the configuration.
func (c SQLiteConfig) Validate() error {
	if c.Path == "" {
		return model.NewConfigError("storage.sqlite.path", "required")
	}
	if c.BatchSize < 0 {
		return model.NewConfigError("storage.sqlite.batch_size", "must not be negative")
	}
	return nil
}

// SQLiteStore persists timesteps in a SQLite database. Records are inserted
// in one transaction per batch.
type SQLiteStore struct {
	db     *sql.DB
	runID  string
	insert string
	batch  *corestorage.Batcher
}

// NewSQLiteStore opens or creates the database and ensures the schema.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	names := []string{"run_id", "step", "time"}
	for _, c := range columns(model.Timestep{}) {
		names = append(names, c.name)
	}
	s := &SQLiteStore{
		db:    db,
		runID: cfg.RunID,
		insert: fmt.Sprintf("INSERT OR REPLACE INTO timesteps (%s) VALUES (%s)",
			strings.Join(names, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")),
	}
	s.batch = corestorage.NewBatcher(cfg.BatchSize, s.insertBatch)
	return s, nil
}

func (s *SQLiteStore) insertBatch(ctx context.Context, batch []model.Timestep) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, s.insert)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, ts := range batch {
		args := []any{s.runID, ts.Step, ts.Time.Unix()}
		for _, c := range columns(ts) {
			args = append(args, c.value)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert step %d: %w", ts.Step, err)
		}
	}
	return tx.Commit()
}

// WriteTimestep buffers ts until the batch is full.
func (s *SQLiteStore) WriteTimestep(ctx context.Context, ts model.Timestep) error {
	return s.batch.Add(ctx, ts)
}

// Flush inserts the pending batch.
func (s *SQLiteStore) Flush(ctx context.Context) error {
	return s.batch.Flush(ctx)
}

// Query returns the records of runID ordered by step.
func (s *SQLiteStore) Query(ctx context.Context, runID string) ([]model.Timestep, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT step, time, t_amb, p_solar, t_in, t_en,
        p_heat_th, p_heat_el, p_base, p_pv, p_bat, soc_bat, fill_level, p_load_pred
        FROM timesteps WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Timestep
	for rows.Next() {
		var ts model.Timestep
		var unix int64
		if err := rows.Scan(&ts.Step, &unix, &ts.TAmb, &ts.PSolar, &ts.TIn, &ts.TEn,
			&ts.PHeatTh, &ts.PHeatEl, &ts.PBase, &ts.PPV, &ts.PBat, &ts.SoCBat,
			&ts.FillLevel, &ts.PLoadPred); err != nil {
			return nil, err
		}
		ts.Time = time.Unix(unix, 0).UTC()
		res = append(res, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close inserts pending records and closes the database.
func (s *SQLiteStore) Close() error {
	ferr := s.batch.Flush(context.Background())
	cerr := s.db.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

func newSQLiteWriter(conf map[string]any) (corestorage.TimestepWriter, error) {
	var cfg SQLiteConfig
	if err := factory.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	return NewSQLiteStore(cfg)
}
