// Package version exposes build identity for the running binary. The
// variables are overwritten at link time:
//
//	go build -ldflags "-X .../internal/version.Version=v1.2.0 ..."
//
// Unset values fall back to development defaults so the binary always
// reports something.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// Commit is the short git SHA the binary was built from.
	Commit = "unknown"
	// BuildTime is when the binary was built, RFC 3339.
	BuildTime = "unknown"
)

// Info is the build identity reported by the version endpoint and the
// startup log.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get snapshots the linked build identity plus the Go runtime version.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String renders the identity in one log-friendly token, e.g.
// "v1.2.0 (3fa9c21)".
func (i Info) String() string {
	return fmt.Sprintf("%s (%s)", i.Version, i.Commit)
}
