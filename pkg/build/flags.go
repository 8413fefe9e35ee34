// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata stamped into the beatviz binary at link
// time. Release builds set every field:
//
//	go build -ldflags "-X visualizer/pkg/build.buildName=beatviz \
//	  -X visualizer/pkg/build.buildTime=$(date -u +%FT%TZ) \
//	  -X visualizer/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X visualizer/pkg/build.buildVersion=0.3.0"
//
// Development builds set none and run with the defaults below.
package build

import "fmt"

// Description is the one-line summary shown in CLI help.
const Description = "Real-time spectrum visualiser with beat-driven controller rumble"

// Info holds build-time information.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String formats the info for the version command.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &Info{
		Name:    "beatviz",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies the ldflags variables into the build info. A binary with
// no ldflags keeps the development defaults; a binary with only some of them
// set was built incorrectly and is rejected.
func Initialize() error {
	if buildName == "" && buildTime == "" && buildCommit == "" && buildVersion == "" {
		return nil
	}
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}
