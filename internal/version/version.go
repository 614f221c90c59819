// Package version carries build-time version information.
package version

// Version is the application version, overridable at build time via
// -ldflags "-X github.com/revlogica/orchestrator/internal/version.Version=...".
var Version = "1.0.0"
