package metrics

// Package metrics defines recorders observing a simulation run. Recorders
// receive every timestep and the KPI summary at the end of the run.
// Implementations like the Prometheus recorder in infra/metrics register
// themselves by name; NewRecorder returns a MultiRecorder automatically when
// several recorders are configured.
