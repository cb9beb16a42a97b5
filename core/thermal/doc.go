// Package thermal implements a lumped 3R2C building model. Indoor air and the
// building envelope are two thermal capacitances coupled to each other and to
// the ambient through three resistances. Parameters are estimated from the
// archetype regression in package regression.
package thermal
