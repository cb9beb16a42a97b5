package metrics

import (
	"github.com/kilianp07/ferntree/core/factory"
	coremetrics "github.com/kilianp07/ferntree/core/metrics"
)

// init registers built-in run recorders.
func init() {
	_ = coremetrics.RegisterRecorder("nop", func(map[string]any) (coremetrics.RunRecorder, error) {
		return coremetrics.NopRecorder{}, nil
	})

	_ = coremetrics.RegisterRecorder("prometheus", func(conf map[string]any) (coremetrics.RunRecorder, error) {
		var c PromConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPromRecorder(c)
	})
}
