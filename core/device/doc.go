// Package device implements the household devices ticked by a house once
// per timestep. Each device owns its state; other components read it through
// the typed State accessors.
package device
