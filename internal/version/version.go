// Package version carries build metadata injected via -ldflags.
package version

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds
	Version = "dev"
	// Commit is the short git hash of the build
	Commit = "dev"
	// BuildTime is the RFC3339 build timestamp
	BuildTime = "unknown"
)

// String renders the build metadata in one line for CLI --version output.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
}
