// Package config defines the knob daemon settings and provides helpers to
// load, validate and save them in YAML format.
//
// The Config type holds the encoder pin assignment, the volume bounds and the
// mixer backend selection. Validation runs before the event loop starts and
// refuses inconsistent settings outright.
package config
