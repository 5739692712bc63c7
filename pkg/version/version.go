// Package version holds the build version, overridden at link time with
// -ldflags "-X witcherkg/pkg/version.Version=...".
package version

// Version is the current witcherkg version.
var Version = "v0.3.0"
