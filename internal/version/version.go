package version

import (
	"fmt"
	"runtime"
)

var (
	version = "v0.1.0"
	// gitCommit is set with -ldflags at build time.
	gitCommit = "none"
)

func GetVersion() string {
	return version
}

// BuildInfo describes the compiled time information.
type BuildInfo struct {
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	GitCommit string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	GoVersion string `json:"go_version,omitempty" yaml:"go_version,omitempty"`
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit %s, %s)", b.Version, b.GitCommit, b.GoVersion)
}

// Get returns build info
func Get() BuildInfo {
	return BuildInfo{
		Version:   GetVersion(),
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
	}
}
