package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/ferntree/core/factory"
	"github.com/kilianp07/ferntree/core/model"
	corestorage "github.com/kilianp07/ferntree/core/storage"
	"github.com/kilianp07/ferntree/infra/logger"
	"github.com/kilianp07/ferntree/infra/mqtt"
)

// DefaultTopicPrefix is the root of the topics timesteps are published on.
const DefaultTopicPrefix = "ferntree"

// MQTTConfig configures the MQTT sink.
type MQTTConfig struct {
	mqtt.Config
	RunID       string `json:"run_id"`
	TopicPrefix string `json:"topic_prefix"`
	// FlushTimeoutMS bounds the wait for outstanding publications on Flush.
	FlushTimeoutMS int `json:"flush_timeout_ms"`
	// Log is the run logger. Nil discards the sink's log lines.
	Log logger.Logger `json:"-"`
}

type mqttPublisher interface {
	PublishAsync(topic string, payload []byte) paho.Token
	Disconnect()
}

// MQTTSink publishes every timestep as JSON without waiting for the broker.
// Flush waits for the outstanding publications and reports their errors.
type MQTTSink struct {
	pub     mqttPublisher
	topic   string
	runID   string
	timeout time.Duration
	pending []paho.Token
	log     logger.Logger
}

// Topic returns the topic timesteps of runID are published on.
func Topic(prefix, runID string) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return fmt.Sprintf("%s/%s/timestep", strings.TrimSuffix(prefix, "/"), runID)
}

// NewMQTTSink connects to the broker and returns the sink.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	log := cfg.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	pub, err := mqtt.NewPublisher(cfg.Config, log)
	if err != nil {
		return nil, fmt.Errorf("mqtt sink: %w", err)
	}
	return newMQTTSink(pub, cfg, log), nil
}

func newMQTTSink(pub mqttPublisher, cfg MQTTConfig, log logger.Logger) *MQTTSink {
	timeout := time.Duration(cfg.FlushTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTSink{
		pub:     pub,
		topic:   Topic(cfg.TopicPrefix, cfg.RunID),
		runID:   cfg.RunID,
		timeout: timeout,
		log:     log,
	}
}

// WriteTimestep publishes ts.
func (s *MQTTSink) WriteTimestep(_ context.Context, ts model.Timestep) error {
	payload, err := json.Marshal(Record{RunID: s.runID, Timestep: ts})
	if err != nil {
		return err
	}
	s.pending = append(s.pending, s.pub.PublishAsync(s.topic, payload))
	if len(s.pending) >= corestorage.DefaultBatchSize {
		return s.drain()
	}
	return nil
}

// Flush waits for the outstanding publications.
func (s *MQTTSink) Flush(context.Context) error {
	return s.drain()
}

func (s *MQTTSink) drain() error {
	var errs []error
	for _, tok := range s.pending {
		if !tok.WaitTimeout(s.timeout) {
			errs = append(errs, fmt.Errorf("mqtt publish timeout on %s", s.topic))
			continue
		}
		if err := tok.Error(); err != nil {
			errs = append(errs, err)
		}
	}
	s.pending = s.pending[:0]
	if len(errs) > 0 {
		s.log.Errorf("%d timestep publications failed", len(errs))
	}
	return errors.Join(errs...)
}

// Close waits for outstanding publications and disconnects.
func (s *MQTTSink) Close() error {
	err := s.drain()
	s.pub.Disconnect()
	return err
}

func newMQTTWriter(conf map[string]any) (corestorage.TimestepWriter, error) {
	var cfg MQTTConfig
	if err := factory.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	cfg.Log = sinkLogger(conf, "mqtt")
	return NewMQTTSink(cfg)
}
