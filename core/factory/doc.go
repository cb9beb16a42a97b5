// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation; timestep sinks and run recorders are built this
// way. Unknown types and undecodable settings are configuration errors.
//
// Example usage:
//
//	reg := factory.NewRegistry[storage.TimestepWriter]()
//	reg.Register("jsonl", func(conf map[string]any) (storage.TimestepWriter, error) {
//	    var c JSONLConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewJSONLStore(c)
//	})
//	w, err := reg.Create(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": "run.jsonl"}})
package factory
