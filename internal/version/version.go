// Package version holds the build identity of the arxml tool.
package version

import "runtime"

// Overridden at build time:
// go build -ldflags "-X autosar/internal/version.Version=1.0.0 -X autosar/internal/version.Commit=abc123"
var (
	Version = "0.4.0"

	Commit = "unknown"

	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when known
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "arxml version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version() + "\n" +
		"Schemas: AUTOSAR 3.x, AUTOSAR 4.0"
}
