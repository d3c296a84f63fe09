// Package consts houses version information.
package consts

import (
	"fmt"
	"runtime"
	"strings"
)

// Version is the current semantic version.
const Version = "1.0.0"

// VersionDetails can be set externally as part of the build process.
//
//nolint:gochecknoglobals
var VersionDetails = ""

// FullVersion returns the maximally full version and build information for
// the currently running binary.
func FullVersion() string {
	goVersionArch := fmt.Sprintf("%s, %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if VersionDetails != "" {
		return fmt.Sprintf("%s (%s, %s)", Version, VersionDetails, goVersionArch)
	}
	if strings.HasPrefix(runtime.Version(), "devel") {
		return fmt.Sprintf("%s (dev build, %s)", Version, goVersionArch)
	}
	return fmt.Sprintf("%s (%s)", Version, goVersionArch)
}
