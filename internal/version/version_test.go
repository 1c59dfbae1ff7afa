package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// withBuildVars overrides the linker variables for the duration of a test
func withBuildVars(t *testing.T, version, commit, tag, dirty string) {
	t.Helper()
	orig := [4]string{Version, GitCommit, GitTag, GitDirty}
	t.Cleanup(func() {
		Version, GitCommit, GitTag, GitDirty = orig[0], orig[1], orig[2], orig[3]
	})
	Version, GitCommit, GitTag, GitDirty = version, commit, tag, dirty
}

func TestResolveVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		tag     string
		dirty   string
		want    string
	}{
		{"defaults", "dev", "unknown", "unknown", "", "dev"},
		{"ldflags", "v1.2.3", "unknown", "unknown", "", "v1.2.3"},
		{"tag and commit", "dev", "abcdef1234567", "v0.3.0", "", "v0.3.0-abcdef1"},
		{"dirty tree", "dev", "abcdef1234567", "v0.3.0", "dirty", "v0.3.0-abcdef1-dirty"},
		{"short commit", "dev", "abc", "v0.3.0", "", "v0.3.0-abc"},
		{"tag contains commit", "dev", "abcdef1234567", "v0.3.0-abcdef1", "", "v0.3.0-abcdef1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildVars(t, tt.version, tt.commit, tt.tag, tt.dirty)
			// test binaries report "(devel)" as their main module version
			assert.Equal(t, tt.want, resolveVersion())
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.0.0", Commit: "0123456789abcdef", BuildTime: "2026-01-02", GoVersion: "go1.25.5"}
	assert.Equal(t, "typed-css-modules v1.0.0 (commit: 0123456) built 2026-01-02 go1.25.5", info.String())

	bare := Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"}
	assert.Equal(t, "typed-css-modules dev", bare.String())
}

func TestCurrent(t *testing.T) {
	withBuildVars(t, "v9.9.9", "feedface", "unknown", "")
	info := Current()
	assert.Equal(t, "v9.9.9", info.Version)
	assert.Equal(t, "feedface", info.Commit)
	assert.NotEmpty(t, info.GoVersion)
}
