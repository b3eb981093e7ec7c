// Package version exposes build metadata for the binaries.
//
// Version, Commit, and BuildTime are injected via Go ldflags and carry
// local-build defaults otherwise.
package version
