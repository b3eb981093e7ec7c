// Package gpio provides edge-triggered access to sysfs GPIO inputs.
//
// Pin wraps one exported input pin (export, direction, edge trigger, level
// reads and poll-based edge waits). Watcher ties the knob's monitored lines
// together: one poll goroutine per pin, all edges funnelled into a single
// buffered channel so the consumer sees them in observation order.
package gpio
