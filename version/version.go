package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/TFMV/salesreport/version.Version=...".
var (
	Version   = "0.1.0"
	Commit    = "dev"
	BuildDate = "2026-10-19"
)

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}

// String renders a one-line version banner.
func String() string {
	return fmt.Sprintf("salesreport %s (commit %s, built %s, %s)", Version, Commit, BuildDate, runtime.Version())
}
