// Package buildinfo exposes version information stamped in at build time.
//
//	go build -ldflags "-X github.com/yndnr/ispstatus-go/internal/infra/buildinfo.Version=v1.0.0 \
//	    -X github.com/yndnr/ispstatus-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// When Commit is not stamped, the VCS revision recorded by the Go toolchain
// is used instead.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// Get returns the build information.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if info.Commit == "unknown" {
		if rev, ok := vcsRevision(); ok {
			info.Commit = rev
		}
	}
	return info
}

// String returns a one-line version string for --version output.
func String() string {
	info := Get()
	return fmt.Sprintf("%s (%s) built at %s with %s", info.Version, info.Commit, info.BuildTime, info.GoVersion)
}

func vcsRevision() (string, bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12], true
			}
			return s.Value, true
		}
	}
	return "", false
}
