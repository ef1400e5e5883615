// Package version contains build version information set at link time:
//
//	go build -ldflags "-X github.com/bissquit/hookrelay/internal/version.Version=1.2.3"
package version

import "fmt"

// Build information. Overridden via -ldflags.
var (
	Version   = "0.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the build information served by the /version endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Get returns the current build information.
func Get() Info {
	return Info{Version: Version, Commit: GitCommit, BuildDate: BuildDate}
}

// String formats the build information on one line.
func (i Info) String() string {
	return fmt.Sprintf("hookrelay %s (commit %s, built %s)", i.Version, i.Commit, i.BuildDate)
}
