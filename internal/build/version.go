// Package build holds version information injected at link time:
//
//	go build -ldflags "-X github.com/ariel-frischer/changelog-bot/internal/build.Version=v1.2.3"
//
// It imports no other internal package.
package build

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// String renders the version line printed by 'changelog-bot version'.
func String() string {
	return fmt.Sprintf("changelog-bot %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
