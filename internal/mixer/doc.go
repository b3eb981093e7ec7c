// Package mixer adapts the volume controller's commands onto a real audio
// subsystem.
//
// Two backends are provided: Amixer shells out to the ALSA amixer tool, and
// CamillaDSP speaks the CamillaDSP JSON websocket protocol. Both are
// best-effort: callers log failures and keep their own state authoritative.
package mixer
