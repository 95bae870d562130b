package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags "-X github.com/flowbaker/sortinghat/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// Info is the build information reported by `sortinghat version` and the health endpoint
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Get() Info {
	return Info{
		Version:   GetVersion(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersion returns the ldflags version, then the module version from build info, then "dev".
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	return "dev"
}

func (i Info) String() string {
	s := "sortinghat " + i.Version
	if len(i.GitCommit) >= 7 {
		s += " (" + i.GitCommit[:7] + ")"
	}
	if i.BuildDate != "" {
		s += " built " + i.BuildDate
	}
	return s + " " + i.GoVersion + " " + i.Platform
}
