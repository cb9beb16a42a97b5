package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kilianp07/ferntree/core/factory"
	"github.com/kilianp07/ferntree/core/model"
	corestorage "github.com/kilianp07/ferntree/core/storage"
)

// KafkaConfig configures the Kafka sink.
type KafkaConfig struct {
	RunID        string        `json:"run_id"`
	Brokers      []string      `json:"brokers"`
	Topic        string        `json:"topic"`
	BatchSize    int           `json:"batch_size"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// Validate checks the configuration.
func (c KafkaConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return model.NewConfigError("storage.kafka.brokers", "at least one broker required")
	}
	if c.Topic == "" {
		return model.NewConfigError("storage.kafka.topic", "required")
	}
	if c.WriteTimeout < 0 {
		return model.NewConfigError("storage.kafka.write_timeout", "must not be negative")
	}
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink produces one message per timestep keyed by run ID so that a run
// stays on one partition in step order.
type KafkaSink struct {
	w     messageWriter
	runID string
	batch *corestorage.Batcher
}

// NewKafkaSink creates a synchronous writer for the configured topic.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.WriteTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    batchSizeOr(cfg.BatchSize),
		WriteTimeout: timeout,
		Async:        false,
	}
	return newKafkaSink(w, cfg), nil
}

func newKafkaSink(w messageWriter, cfg KafkaConfig) *KafkaSink {
	s := &KafkaSink{w: w, runID: cfg.RunID}
	s.batch = corestorage.NewBatcher(cfg.BatchSize, s.send)
	return s
}

func batchSizeOr(n int) int {
	if n <= 0 {
		return corestorage.DefaultBatchSize
	}
	return n
}

func (s *KafkaSink) send(ctx context.Context, batch []model.Timestep) error {
	msgs := make([]kafka.Message, 0, len(batch))
	for _, ts := range batch {
		b, err := json.Marshal(Record{RunID: s.runID, Timestep: ts})
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(s.runID), Value: b, Time: ts.Time})
	}
	if err := s.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// WriteTimestep buffers ts until the batch is full.
func (s *KafkaSink) WriteTimestep(ctx context.Context, ts model.Timestep) error {
	return s.batch.Add(ctx, ts)
}

// Flush produces the buffered messages.
func (s *KafkaSink) Flush(ctx context.Context) error {
	return s.batch.Flush(ctx)
}

// Close produces the buffered messages and closes the writer.
func (s *KafkaSink) Close() error {
	ferr := s.batch.Flush(context.Background())
	cerr := s.w.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

func newKafkaWriter(conf map[string]any) (corestorage.TimestepWriter, error) {
	var cfg KafkaConfig
	if err := factory.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	return NewKafkaSink(cfg)
}
