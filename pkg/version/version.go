package version

import (
	"github.com/blang/semver/v4"
)

var DevVersion = "v0.0.0"

// set via -ldflags "-X github.com/loft-sh/amplitude/pkg/version.version=..."
var version = "v0.0.0"

func GetVersion() string {
	return version
}

// IsDev reports whether this is an unreleased build
func IsDev() bool {
	return version == DevVersion
}

// Parse returns the semantic version, or 0.0.0 if the build version is malformed.
func Parse() semver.Version {
	v, err := semver.ParseTolerant(GetVersion())
	if err != nil {
		return semver.Version{}
	}

	return v
}

// UserAgent is sent with every upload
func UserAgent() string {
	return "amplitude-go/" + Parse().String()
}
