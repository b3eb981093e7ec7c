package version

import "fmt"

var (
	// Version is the semantic version of the build, overridable via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA recorded at build time.
	Commit = "none"
	// BuildTime is the UTC timestamp recorded at build time.
	BuildTime = "unknown"
)

// Short returns the bare semantic version.
func Short() string {
	return Version
}

// Full renders the version together with commit and build metadata.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
