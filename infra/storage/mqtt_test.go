package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ferntree/infra/logger"
)

type fakeToken struct {
	err     error
	pending bool
}

func (f fakeToken) Wait() bool                     { return !f.pending }
func (f fakeToken) WaitTimeout(time.Duration) bool { return !f.pending }
func (f fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !f.pending {
		close(ch)
	}
	return ch
}
func (f fakeToken) Error() error { return f.err }

type fakePublisher struct {
	topics       []string
	payloads     [][]byte
	tokens       []fakeToken
	disconnected bool
}

func (f *fakePublisher) PublishAsync(topic string, payload []byte) paho.Token {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	if len(f.tokens) > 0 {
		tok := f.tokens[0]
		f.tokens = f.tokens[1:]
		return tok
	}
	return fakeToken{}
}

func (f *fakePublisher) Disconnect() { f.disconnected = true }

func TestTopic(t *testing.T) {
	assert.Equal(t, "ferntree/r1/timestep", Topic("", "r1"))
	assert.Equal(t, "sim/r1/timestep", Topic("sim/", "r1"))
}

func TestMQTTSinkPublishesRecords(t *testing.T) {
	pub := &fakePublisher{}
	s := newMQTTSink(pub, MQTTConfig{RunID: "r1"}, logger.NopLogger{})
	ctx := context.Background()
	for _, ts := range sampleSteps(3) {
		require.NoError(t, s.WriteTimestep(ctx, ts))
	}
	require.NoError(t, s.Flush(ctx))
	require.Len(t, pub.payloads, 3)
	assert.Equal(t, "ferntree/r1/timestep", pub.topics[2])

	var rec Record
	require.NoError(t, json.Unmarshal(pub.payloads[2], &rec))
	assert.Equal(t, "r1", rec.RunID)
	assert.Equal(t, 2, rec.Step)
	assert.InDelta(t, 275.15, rec.TAmb, 1e-9)

	require.NoError(t, s.Close())
	assert.True(t, pub.disconnected)
}

func TestMQTTSinkFlushReportsFailures(t *testing.T) {
	pub := &fakePublisher{tokens: []fakeToken{{err: errors.New("broker gone")}, {pending: true}, {}}}
	s := newMQTTSink(pub, MQTTConfig{RunID: "r1", FlushTimeoutMS: 1}, logger.NopLogger{})
	ctx := context.Background()
	for _, ts := range sampleSteps(3) {
		require.NoError(t, s.WriteTimestep(ctx, ts), "publishing never blocks the run")
	}
	err := s.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker gone")
	assert.Contains(t, err.Error(), "timeout")
	assert.NoError(t, s.Flush(ctx), "tokens are drained once")
}
