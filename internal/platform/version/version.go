package version

import (
	"fmt"
	"runtime"
)

// Injected via -ldflags "-X github.com/pscheid92/streamagenda/internal/platform/version.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// UserAgent identifies outgoing Helix requests.
func UserAgent() string {
	return fmt.Sprintf("streamagenda/%s (+%s)", Version, Commit)
}
