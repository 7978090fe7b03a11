package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Project names the suite commute-alarmd and commute-alarmctl belong to.
const Project = "commute-alarm"

// noCommit is the Commit value of builds without ldflags.
const noCommit = "none"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = noCommit
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Info is the build metadata of one binary of the suite.
type Info struct {
	// Binary is the executable name, e.g. commute-alarmd.
	Binary string `json:"binary"`
	// Version is the semantic version.
	Version string `json:"version"`
	// Commit is the short git SHA.
	Commit string `json:"commit"`
	// BuildTime is the UTC build timestamp.
	BuildTime string `json:"build_time"`
	// GoVersion is the toolchain the binary was built with.
	GoVersion string `json:"go_version"`
}

// For returns the build metadata of binary. Without a Commit from ldflags the
// VCS revision stamped by the Go toolchain is used when present.
func For(binary string) Info {
	info := Info{
		Binary:    binary,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	if info.Commit == noCommit {
		if revision, ok := vcsRevision(); ok {
			info.Commit = revision
		}
	}

	return info
}

// String renders the line printed by the version command.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s, commit: %s, built at: %s, %s)",
		i.Binary, i.Version, Project, i.Commit, i.BuildTime, i.GoVersion)
}

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// vcsRevision returns the abbreviated vcs.revision build setting.
func vcsRevision() (string, bool) {
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}

	for _, setting := range build.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			return setting.Value[:min(len(setting.Value), 7)], true
		}
	}

	return "", false
}
