// Package ctl implements the one-shot volume-ctl operations: read, set and
// mute the mixer through the same backend configuration the daemon uses.
package ctl
