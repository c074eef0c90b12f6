package version

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Set at build time with -ldflags "-X github.com/t2bot/snapshot-repo/common/version.Version=..."
var GitCommit string
var Version string

var defaultsOnce = &sync.Once{}

func SetDefaults() {
	defaultsOnce.Do(func() {
		if GitCommit == "" {
			GitCommit = ".dev"
			if build, ok := debug.ReadBuildInfo(); ok {
				for _, setting := range build.Settings {
					if setting.Key == "vcs.revision" {
						GitCommit = setting.Value
						break
					}
				}
			}
		}
		if Version == "" {
			Version = "unknown"
		}
	})
}

// Release identifies this build to sentry.
func Release() string {
	SetDefaults()
	return fmt.Sprintf("%s-%s", Version, GitCommit)
}

func Print(usingLogger bool) {
	SetDefaults()
	line := fmt.Sprintf("snapshot-repo %s (commit %s)", Version, GitCommit)
	if usingLogger {
		logrus.Info(line)
	} else {
		fmt.Println(line)
	}
}

// UserAgent is sent on outbound webhook deliveries.
func UserAgent(name string) string {
	SetDefaults()
	return fmt.Sprintf("%s/%s (+%s)", name, Version, GitCommit)
}
