package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ferntree/core/factory"
	"github.com/kilianp07/ferntree/core/model"
	"github.com/kilianp07/ferntree/infra/logger"
)

type recordingWriter struct {
	MemoryStore
	runID string
}

func init() {
	_ = RegisterWriter("test-recording", func(conf map[string]any) (TimestepWriter, error) {
		var c struct {
			RunID string `json:"run_id"`
			Fail  bool   `json:"fail"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Fail {
			return nil, errors.New("boom")
		}
		return &recordingWriter{runID: c.RunID}, nil
	})
	_ = RegisterWriter("test-logging", func(conf map[string]any) (TimestepWriter, error) {
		if l := SinkLogger(conf); l != nil {
			l.Infof("sink opened")
		}
		return NewMemoryStore(), nil
	})
}

func TestNewWriterVariants(t *testing.T) {
	w, err := NewWriter(nil, "r1", nil)
	require.NoError(t, err)
	assert.IsType(t, NopWriter{}, w)

	w, err = NewWriter([]factory.ModuleConfig{{Type: "test-recording"}}, "r1", nil)
	require.NoError(t, err)
	rw, ok := w.(*recordingWriter)
	require.True(t, ok)
	assert.Equal(t, "r1", rw.runID)

	w, err = NewWriter([]factory.ModuleConfig{{Type: "test-recording"}, {Type: "test-recording"}}, "r2", nil)
	require.NoError(t, err)
	mw, ok := w.(*MultiWriter)
	require.True(t, ok)
	assert.Len(t, mw.Writers, 2)

	_, err = NewWriter([]factory.ModuleConfig{{Type: "missing"}}, "r3", nil)
	assert.Error(t, err)

	_, err = NewWriter([]factory.ModuleConfig{{Type: "test-recording"}, {Type: "test-recording", Conf: map[string]any{"fail": true}}}, "r4", nil)
	assert.ErrorContains(t, err, "boom")
	assert.Contains(t, Writers(), "test-recording")
}

func TestNewWriterDoesNotMutateConfig(t *testing.T) {
	conf := map[string]any{"x": 1}
	_, err := NewWriter([]factory.ModuleConfig{{Type: "test-recording", Conf: conf}}, "r1", nil)
	require.NoError(t, err)
	_, ok := conf[RunIDKey]
	assert.False(t, ok)
}

func TestMultiWriterFanOut(t *testing.T) {
	a, b := NewMemoryStore(), NewMemoryStore()
	m := NewMultiWriter(a, b)
	ctx := context.Background()
	require.NoError(t, m.WriteTimestep(ctx, model.Timestep{Step: 1}))
	require.NoError(t, m.Flush(ctx))
	require.NoError(t, m.Close())
	for _, s := range []*MemoryStore{a, b} {
		assert.Len(t, s.Records(), 1)
		assert.Equal(t, 1, s.Flushes())
		assert.True(t, s.Closed())
	}
	assert.ErrorIs(t, m.WriteTimestep(ctx, model.Timestep{}), ErrClosed)
}

func TestBatcher(t *testing.T) {
	var batches [][]int
	fail := false
	b := NewBatcher(3, func(_ context.Context, batch []model.Timestep) error {
		if fail {
			return errors.New("down")
		}
		steps := make([]int, len(batch))
		for i, ts := range batch {
			steps[i] = ts.Step
		}
		batches = append(batches, steps)
		return nil
	})
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		require.NoError(t, b.Add(ctx, model.Timestep{Step: i}))
	}
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}}, batches)
	assert.Equal(t, 1, b.Len())

	fail = true
	assert.Error(t, b.Flush(ctx))
	assert.Equal(t, 1, b.Len())
	fail = false
	require.NoError(t, b.Flush(ctx))
	assert.Equal(t, []int{6}, batches[2])
	assert.Equal(t, 0, b.Len())
	require.NoError(t, b.Flush(ctx))
	assert.Len(t, batches, 3)
}

func TestNewWriterHandsRunLoggerToSinks(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewZerologLoggerWithWriter("storage", &buf, "info").With("run_id", "r7")
	_, err := NewWriter([]factory.ModuleConfig{{Type: "test-logging"}}, "r7", log)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "sink opened")
	assert.Contains(t, buf.String(), `"run_id":"r7"`)

	buf.Reset()
	_, err = NewWriter([]factory.ModuleConfig{{Type: "test-logging"}}, "r8", nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}
