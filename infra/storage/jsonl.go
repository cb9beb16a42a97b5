package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/ferntree/core/factory"
	"github.com/kilianp07/ferntree/core/model"
	corestorage "github.com/kilianp07/ferntree/core/storage"
)

// JSONLConfig configures the rotating JSON lines sink.
type JSONLConfig struct {
	RunID      string `json:"run_id"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
	BufferKB   int    `json:"buffer_kb"`
}

// SetDefaults applies default rotation and buffering.
func (c *JSONLConfig) SetDefaults() {
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 100
	}
	if c.BufferKB == 0 {
		c.BufferKB = 64
	}
}

// Validate checks the configuration.
func (c JSONLConfig) Validate() error {
	if c.Path == "" {
		return model.NewConfigError("storage.jsonl.path", "required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return model.NewConfigError("storage.jsonl", "rotation limits must not be negative")
	}
	return nil
}

// JSONLStore writes one JSON object per timestep through a buffered writer
// on top of a rotating file.
type JSONLStore struct {
	runID  string
	path   string
	logger *lumberjack.Logger
	buf    *bufio.Writer
	enc    *json.Encoder
	closed bool
}

// NewJSONLStore opens the sink described by cfg.
func NewJSONLStore(cfg JSONLConfig) (*JSONLStore, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("jsonl dir: %w", err)
		}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	buf := bufio.NewWriterSize(lj, cfg.BufferKB*1024)
	return &JSONLStore{
		runID:  cfg.RunID,
		path:   cfg.Path,
		logger: lj,
		buf:    buf,
		enc:    json.NewEncoder(buf),
	}, nil
}

// WriteTimestep encodes ts as one line.
func (s *JSONLStore) WriteTimestep(_ context.Context, ts model.Timestep) error {
	if s.closed {
		return corestorage.ErrClosed
	}
	return s.enc.Encode(Record{RunID: s.runID, Timestep: ts})
}

// Flush writes the buffered lines to the file.
func (s *JSONLStore) Flush(context.Context) error {
	if s.closed {
		return nil
	}
	return s.buf.Flush()
}

// Close flushes and closes the file.
func (s *JSONLStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	ferr := s.buf.Flush()
	cerr := s.logger.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

// ReadJSONL reads all records of path including rotated backups. Rotated
// files are read before the active one, oldest first. Malformed lines are
// skipped.
func ReadJSONL(path string) ([]Record, error) {
	ext := filepath.Ext(path)
	prefix := path[:len(path)-len(ext)]
	backups, err := filepath.Glob(prefix + "-*" + ext)
	if err != nil {
		return nil, err
	}
	sort.Strings(backups)
	files := append(backups, path)

	var res []Record
	for _, f := range files {
		file, err := os.Open(f)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var r Record
			if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
				continue
			}
			res = append(res, r)
		}
		err = scanner.Err()
		_ = file.Close()
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func newJSONLWriter(conf map[string]any) (corestorage.TimestepWriter, error) {
	var cfg JSONLConfig
	if err := factory.Decode(conf, &cfg); err != nil {
		return nil, err
	}
	return NewJSONLStore(cfg)
}
