// Package knob runs the volume-knob daemon: it wires the GPIO edge source,
// the quadrature decoder, the button debouncer and the volume controller
// together and dispatches the resulting commands to the mixer backend.
//
// All shared state is mutated from a single consumer goroutine draining the
// edge channel in arrival order; mixer calls run on a separate dispatch
// goroutine so a slow mixer never drops encoder edges.
package knob
