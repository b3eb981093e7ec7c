// Package button filters mechanical contact bounce on the knob's push
// button line.
//
// The Debouncer accepts raw level changes with their timestamps and confirms
// a press or release only after the line has been stable for a configured
// window, so each physical press yields exactly one event.
package button
