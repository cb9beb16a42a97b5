package metrics

import (
	"fmt"
	"io"
	"maps"

	"github.com/kilianp07/ferntree/core/factory"
)

// RunIDKey is injected into every recorder configuration.
const RunIDKey = "run_id"

var recorderRegistry = factory.NewRegistry[RunRecorder]()

// RegisterRecorder adds a recorder factory identified by name.
func RegisterRecorder(name string, f factory.Factory[RunRecorder]) error {
	return recorderRegistry.Register(name, f)
}

// NewRecorder creates a RunRecorder for run runID from the provided
// configuration.
func NewRecorder(cfgs []factory.ModuleConfig, runID string) (RunRecorder, error) {
	if len(cfgs) == 0 {
		return NopRecorder{}, nil
	}
	recs := make([]RunRecorder, 0, len(cfgs))
	for _, c := range cfgs {
		conf := maps.Clone(c.Conf)
		if conf == nil {
			conf = map[string]any{}
		}
		conf[RunIDKey] = runID
		r, err := recorderRegistry.Create(factory.ModuleConfig{Type: c.Type, Conf: conf})
		if err != nil {
			for _, open := range recs {
				if cl, ok := open.(io.Closer); ok {
					_ = cl.Close()
				}
			}
			return nil, fmt.Errorf("recorder %s: %w", c.Type, err)
		}
		recs = append(recs, r)
	}
	if len(recs) == 1 {
		return recs[0], nil
	}
	return NewMultiRecorder(recs...), nil
}
