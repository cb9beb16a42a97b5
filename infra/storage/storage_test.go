package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ferntree/core/factory"
	"github.com/kilianp07/ferntree/core/model"
	corestorage "github.com/kilianp07/ferntree/core/storage"
)

var t0 = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleSteps(n int) []model.Timestep {
	out := make([]model.Timestep, n)
	for i := range out {
		out[i] = model.Timestep{
			Step:    i,
			Time:    t0.Add(time.Duration(i) * time.Hour),
			TAmb:    273.15 + float64(i),
			TIn:     293.15,
			TEn:     285.0,
			PBase:   0.4,
			PPV:     -0.1 * float64(i),
			PBat:    0.5,
			SoCBat:  2.5,
			PHeatTh: 1.2,
			PHeatEl: 0.4,
		}
	}
	return out
}

func TestJSONLStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "run.jsonl")
	s, err := NewJSONLStore(JSONLConfig{RunID: "r1", Path: path})
	require.NoError(t, err)
	ctx := context.Background()
	for _, ts := range sampleSteps(5) {
		require.NoError(t, s.WriteTimestep(ctx, ts))
	}
	require.NoError(t, s.Flush(ctx))

	recs, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, "r1", recs[0].RunID)
	assert.Equal(t, 4, recs[4].Step)
	assert.True(t, recs[4].Time.Equal(t0.Add(4*time.Hour)))
	assert.InDelta(t, -0.4, recs[4].PPV, 1e-12)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.WriteTimestep(ctx, model.Timestep{}), corestorage.ErrClosed)
}

func TestJSONLStoreBuffersUntilFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	s, err := NewJSONLStore(JSONLConfig{RunID: "r1", Path: path})
	require.NoError(t, err)
	require.NoError(t, s.WriteTimestep(context.Background(), model.Timestep{Step: 0}))
	recs, err := ReadJSONL(path)
	require.NoError(t, err)
	assert.Empty(t, recs)
	require.NoError(t, s.Close())
	recs, err = ReadJSONL(path)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestJSONLConfigValidate(t *testing.T) {
	_, err := NewJSONLStore(JSONLConfig{})
	assert.True(t, model.IsConfigError(err))
	_, err = NewJSONLStore(JSONLConfig{Path: "x.jsonl", MaxBackups: -1})
	assert.True(t, model.IsConfigError(err))
}

func TestSQLiteStoreBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	s, err := NewSQLiteStore(SQLiteConfig{RunID: "r1", Path: path, BatchSize: 3})
	require.NoError(t, err)
	ctx := context.Background()
	for _, ts := range sampleSteps(4) {
		require.NoError(t, s.WriteTimestep(ctx, ts))
	}
	got, err := s.Query(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, got, 3, "only the full batch is inserted")

	require.NoError(t, s.Flush(ctx))
	got, err = s.Query(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, 3, got[3].Step)
	assert.True(t, got[3].Time.Equal(t0.Add(3*time.Hour)))
	assert.InDelta(t, 276.15, got[3].TAmb, 1e-9)
	assert.InDelta(t, 2.5, got[3].SoCBat, 1e-9)

	other, err := s.Query(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, other)
	require.NoError(t, s.Close())
}

func TestSQLiteStoreReplacesStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	s, err := NewSQLiteStore(SQLiteConfig{RunID: "r1", Path: path, BatchSize: 1})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.WriteTimestep(ctx, model.Timestep{Step: 0, Time: t0, PBase: 1}))
	require.NoError(t, s.WriteTimestep(ctx, model.Timestep{Step: 0, Time: t0, PBase: 2}))
	got, err := s.Query(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].PBase)
	require.NoError(t, s.Close())
}

func TestSQLiteConfigValidate(t *testing.T) {
	_, err := NewSQLiteStore(SQLiteConfig{})
	assert.True(t, model.IsConfigError(err))
}

func TestRegisteredSinks(t *testing.T) {
	names := corestorage.Writers()
	for _, n := range []string{"nop", "memory", "jsonl", "sqlite", "influx", "mqtt", "kafka", "clickhouse"} {
		assert.Contains(t, names, n)
	}
}

func TestNewWriterFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfgs := []factory.ModuleConfig{
		{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(dir, "run.jsonl")}},
		{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(dir, "run.db"), "batch_size": "2"}},
	}
	w, err := corestorage.NewWriter(cfgs, "run-42", nil)
	require.NoError(t, err)
	ctx := context.Background()
	for _, ts := range sampleSteps(3) {
		require.NoError(t, w.WriteTimestep(ctx, ts))
	}
	require.NoError(t, w.Flush(ctx))
	require.NoError(t, w.Close())

	recs, err := ReadJSONL(filepath.Join(dir, "run.jsonl"))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "run-42", recs[0].RunID)

	db, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(dir, "run.db")})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	rows, err := db.Query(ctx, "run-42")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestNewWriterBadSinkConfig(t *testing.T) {
	_, err := corestorage.NewWriter([]factory.ModuleConfig{{Type: "kafka", Conf: map[string]any{}}}, "r1", nil)
	require.Error(t, err)
	assert.True(t, model.IsConfigError(err))
}
