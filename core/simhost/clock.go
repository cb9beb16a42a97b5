package simhost

import "time"

// Year is the simulated horizon.
const Year = 365 * 24 * time.Hour

// Clock is the simulation time of a run.
type Clock struct {
	Step     int
	Timebase time.Duration
	Total    int
	Start    time.Time
}

// Now returns the absolute time of the current step.
func (c Clock) Now() time.Time {
	return c.Start.Add(time.Duration(c.Step) * c.Timebase)
}

// Done reports whether every step has been simulated.
func (c Clock) Done() bool { return c.Step >= c.Total }
