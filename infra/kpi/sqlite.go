package kpi

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/ferntree/core/factory"
	corekpi "github.com/kilianp07/ferntree/core/kpi"
	coremetrics "github.com/kilianp07/ferntree/core/metrics"
	"github.com/kilianp07/ferntree/core/model"
)

// SQLiteStore persists the KPIs of runs in a SQLite database: one summary
// row per run and one row per simulated day.
type SQLiteStore struct {
	db    *sql.DB
	runID string
}

// NewSQLiteStore opens or creates the database and ensures schema. Records
// are attributed to runID.
func NewSQLiteStore(path, runID string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := []string{`CREATE TABLE IF NOT EXISTS daily_kpi (
        run_id TEXT,
        day INTEGER,
        import_kwh REAL,
        export_kwh REAL,
        pv_kwh REAL,
        PRIMARY KEY(run_id, day)
    );`, `CREATE TABLE IF NOT EXISTS run_summary (
        run_id TEXT PRIMARY KEY,
        timesteps INTEGER,
        baseload_kwh REAL,
        pv_kwh REAL,
        heating_th_kwh REAL,
        heating_el_kwh REAL,
        battery_charge_kwh REAL,
        battery_discharge_kwh REAL,
        import_kwh REAL,
        export_kwh REAL,
        peak_import_kw REAL,
        elapsed_ms INTEGER
    );`}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &SQLiteStore{db: db, runID: runID}, nil
}

// ObserveTimestep is a no-op; KPIs are stored once the run is complete.
func (s *SQLiteStore) ObserveTimestep(model.Timestep) {}

// RecordSummary inserts or replaces the summary row of the run.
func (s *SQLiteStore) RecordSummary(ctx context.Context, sum corekpi.Summary, elapsed time.Duration) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO run_summary (run_id, timesteps, baseload_kwh, pv_kwh,
        heating_th_kwh, heating_el_kwh, battery_charge_kwh, battery_discharge_kwh,
        import_kwh, export_kwh, peak_import_kw, elapsed_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(run_id) DO UPDATE SET
            timesteps = excluded.timesteps,
            baseload_kwh = excluded.baseload_kwh,
            pv_kwh = excluded.pv_kwh,
            heating_th_kwh = excluded.heating_th_kwh,
            heating_el_kwh = excluded.heating_el_kwh,
            battery_charge_kwh = excluded.battery_charge_kwh,
            battery_discharge_kwh = excluded.battery_discharge_kwh,
            import_kwh = excluded.import_kwh,
            export_kwh = excluded.export_kwh,
            peak_import_kw = excluded.peak_import_kw,
            elapsed_ms = excluded.elapsed_ms`,
		s.runID, sum.Timesteps, sum.BaseloadKWh, sum.PVGenerationKWh, sum.HeatingThermalKWh,
		sum.HeatingElectricKWh, sum.BatteryChargeKWh, sum.BatteryDischargeKWh,
		sum.GridImportKWh, sum.GridExportKWh, sum.PeakImportKW, elapsed.Milliseconds())
	return err
}

// RecordDaily adds the daily records of the run. Records of an existing day
// are accumulated.
func (s *SQLiteStore) RecordDaily(ctx context.Context, days []corekpi.DayRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, r := range days {
		d := corekpi.Day(r.Date)
		if _, err := tx.ExecContext(ctx, `INSERT INTO daily_kpi (run_id, day, import_kwh, export_kwh, pv_kwh)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(run_id, day) DO UPDATE SET
            import_kwh = import_kwh + excluded.import_kwh,
            export_kwh = export_kwh + excluded.export_kwh,
            pv_kwh = pv_kwh + excluded.pv_kwh`,
			s.runID, d.Unix(), r.ImportKWh, r.ExportKWh, r.PVKWh); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Query returns the daily records of runID in the range [start,end].
func (s *SQLiteStore) Query(ctx context.Context, runID string, start, end time.Time) ([]corekpi.DayRecord, error) {
	start = corekpi.Day(start)
	end = corekpi.Day(end)
	rows, err := s.db.QueryContext(ctx, `SELECT day, import_kwh, export_kwh, pv_kwh
        FROM daily_kpi WHERE run_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		runID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []corekpi.DayRecord
	for rows.Next() {
		var ts int64
		var r corekpi.DayRecord
		if err := rows.Scan(&ts, &r.ImportKWh, &r.ExportKWh, &r.PVKWh); err != nil {
			return nil, err
		}
		r.Date = time.Unix(ts, 0).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Summary returns the stored summary of runID.
func (s *SQLiteStore) Summary(ctx context.Context, runID string) (corekpi.Summary, error) {
	var sum corekpi.Summary
	err := s.db.QueryRowContext(ctx, `SELECT timesteps, baseload_kwh, pv_kwh, heating_th_kwh,
        heating_el_kwh, battery_charge_kwh, battery_discharge_kwh, import_kwh, export_kwh,
        peak_import_kw FROM run_summary WHERE run_id = ?`, runID).
		Scan(&sum.Timesteps, &sum.BaseloadKWh, &sum.PVGenerationKWh, &sum.HeatingThermalKWh,
			&sum.HeatingElectricKWh, &sum.BatteryChargeKWh, &sum.BatteryDischargeKWh,
			&sum.GridImportKWh, &sum.GridExportKWh, &sum.PeakImportKW)
	return sum, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// init registers the store as a run recorder.
func init() {
	_ = coremetrics.RegisterRecorder("sqlite_kpi", func(conf map[string]any) (coremetrics.RunRecorder, error) {
		var c struct {
			RunID string `json:"run_id"`
			Path  string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, model.NewConfigError("metrics.sqlite_kpi.path", "required")
		}
		return NewSQLiteStore(c.Path, c.RunID)
	})
}
