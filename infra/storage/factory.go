package storage

import (
	corestorage "github.com/kilianp07/ferntree/core/storage"
	"github.com/kilianp07/ferntree/infra/logger"
)

// init registers built-in timestep sinks.
func init() {
	_ = corestorage.RegisterWriter("nop", func(map[string]any) (corestorage.TimestepWriter, error) {
		return corestorage.NopWriter{}, nil
	})
	_ = corestorage.RegisterWriter("memory", func(map[string]any) (corestorage.TimestepWriter, error) {
		return corestorage.NewMemoryStore(), nil
	})
	_ = corestorage.RegisterWriter("jsonl", newJSONLWriter)
	_ = corestorage.RegisterWriter("sqlite", newSQLiteWriter)
	_ = corestorage.RegisterWriter("influx", newInfluxWriter)
	_ = corestorage.RegisterWriter("mqtt", newMQTTWriter)
	_ = corestorage.RegisterWriter("kafka", newKafkaWriter)
	_ = corestorage.RegisterWriter("clickhouse", newClickHouseWriter)
}

// sinkLogger returns the run logger tagged with the sink type.
func sinkLogger(conf map[string]any, sink string) logger.Logger {
	if l := corestorage.SinkLogger(conf); l != nil {
		return l.With("sink", sink)
	}
	return logger.NopLogger{}
}
