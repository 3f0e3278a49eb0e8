// Package version holds the application version.
package version

// Version is the current application version, overridable at build time via
// -ldflags "-X vitalstore/internal/version.Version=x.y.z".
var Version = "1.0.0"
