package meta

import (
	"fmt"
	"runtime"
)

// Info describes the build context of the redwire binary.
//
// It encapsulates a bunch of information that's included at build time
// by the Go linker. See the vars below for more information
type Info struct {
	Version   string
	Build     string
	Branch    string
	BuildTime string
	Platform  string
	GoVersion string
	GoTag     string
}

// These will be filled in using the linker -X flag
var (
	// Version as an arbitrary string
	Version string

	// Build is the Git sha from when we are building
	Build string

	// Branch is the Git branch that we are building from
	Branch string

	// BuildTimeUTC is the build time in UTC (year/month/day hour:min:sec)
	BuildTimeUTC string

	// Go Tag is the Go build tags. See the following references for more info.
	//
	// * https://golang.org/pkg/go/build/#hdr-Build_Constraints
	// * https://www.digitalocean.com/community/tutorials/customizing-go-binaries-with-build-tags
	// * https://dave.cheney.net/2013/10/12/how-to-use-conditional-compilation-with-the-go-build-tool
	//
	GoTag string

	platform = fmt.Sprintf("%s %s", runtime.GOOS, runtime.GOARCH)
)

// GetInfo returns an Info struct populated with the build information.
// Fields the linker did not set read "unknown", except GoTag.
func GetInfo() Info {
	return Info{
		GoVersion: runtime.Version(),
		Version:   orUnknown(Version),
		Build:     orUnknown(Build),
		Branch:    orUnknown(Branch),
		BuildTime: orUnknown(BuildTimeUTC),
		GoTag:     GoTag,
		Platform:  platform,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}

	return s
}

// String formats the version on one line, e.g.
// "1.2.0 (3f2a1c9 main) built 2021/09/01 10:00:00 with go1.16 on linux amd64".
func (i Info) String() string {
	return fmt.Sprintf("%s (%s %s) built %s with %s on %s", i.Version, i.Build, i.Branch, i.BuildTime, i.GoVersion, i.Platform)
}
