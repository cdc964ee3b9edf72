// Package version holds build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/kailas-cloud/matchmaker/internal/version.Version=v1.2.0"
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build as "v1.2.0 (abc1234, 2026-01-02)".
// Commit hashes are shortened to seven characters.
func String() string {
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, Date)
}

// IsRelease reports whether the binary was built with a version tag.
func IsRelease() bool {
	return Version != "dev" && Version != ""
}
