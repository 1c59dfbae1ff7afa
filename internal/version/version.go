// Package version reports the build identity of typed-css-modules.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set at build time via -ldflags "-X bennypowers.dev/tcm/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = "unknown"
	BuildTime = "unknown"
	GitDirty  = "" // "dirty" when built from a modified tree
)

// Info describes one build
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// Current collects the build information from the linker flags, falling
// back to the module build info embedded by the go command.
func Current() Info {
	info := Info{
		Version:   resolveVersion(),
		Commit:    GitCommit,
		BuildTime: BuildTime,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		if info.Commit == "unknown" {
			for _, setting := range bi.Settings {
				if setting.Key == "vcs.revision" {
					info.Commit = setting.Value
				}
			}
		}
	}
	return info
}

// String renders the info on one line
func (i Info) String() string {
	var b strings.Builder
	b.WriteString("typed-css-modules ")
	b.WriteString(i.Version)
	if i.Commit != "unknown" && i.Commit != "" {
		fmt.Fprintf(&b, " (commit: %s)", shortCommit(i.Commit))
	}
	if i.BuildTime != "unknown" && i.BuildTime != "" {
		fmt.Fprintf(&b, " built %s", i.BuildTime)
	}
	if i.GoVersion != "" {
		fmt.Fprintf(&b, " %s", i.GoVersion)
	}
	return b.String()
}

func resolveVersion() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "(devel)" && bi.Main.Version != "" {
			return bi.Main.Version
		}
	}
	if GitTag == "unknown" || GitCommit == "unknown" {
		return "dev"
	}
	version := GitTag
	if commit := shortCommit(GitCommit); commit != "" && !strings.HasSuffix(GitTag, commit) {
		version = fmt.Sprintf("%s-%s", GitTag, commit)
	}
	if GitDirty == "dirty" {
		version += "-dirty"
	}
	return version
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
