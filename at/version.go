package at

import (
	"bytes"
	"fmt"
)

const (
	versionMarker = "SX1262"
	versionSkip   = 2 // "_V"
	buildMarker   = "Build"
	buildSkip     = 1 // " "
)

// Version is the firmware version reported by AT+VER.
type Version struct {
	Major int
	Minor int
	Build int
}

func (v Version) String() string {
	return fmt.Sprintf("v%d.%d build %d", v.Major, v.Minor, v.Build)
}

// ParseVersion extracts the version triple from a banner such as
// "SMW_SX1262M0_V1.2 ... Build 38". The product and build markers are searched
// independently; a missing marker leaves its fields at zero.
func ParseVersion(banner []byte) Version {
	var v Version

	if i := bytes.Index(banner, []byte(versionMarker)); i >= 0 {
		field := &v.Major
	scan:
		for _, c := range banner[min(i+len(versionMarker)+versionSkip, len(banner)):] {
			switch {
			case isDigit(c):
				*field = *field*10 + int(c-'0')
			case c == '.' && field == &v.Major:
				field = &v.Minor
			default:
				break scan
			}
		}
	}

	if i := bytes.Index(banner, []byte(buildMarker)); i >= 0 {
		for _, c := range banner[min(i+len(buildMarker)+buildSkip, len(banner)):] {
			if !isDigit(c) {
				break
			}
			v.Build = v.Build*10 + int(c-'0')
		}
	}

	return v
}
