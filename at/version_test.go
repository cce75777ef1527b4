package at_test

import (
	"testing"

	"i4.energy/across/smwgw/at"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name     string
		banner   string
		expected at.Version
	}{
		{name: "Full banner", banner: "RoboCore SMW_SX1262_V1.2 - Build 38", expected: at.Version{Major: 1, Minor: 2, Build: 38}},
		{name: "Multi digit fields", banner: "SX1262_V10.21 Build 1024", expected: at.Version{Major: 10, Minor: 21, Build: 1024}},
		{name: "Second dot ends the version", banner: "SX1262_V1.2.3 Build 4", expected: at.Version{Major: 1, Minor: 2, Build: 4}},
		{name: "Missing build", banner: "SX1262_V3.4", expected: at.Version{Major: 3, Minor: 4}},
		{name: "Missing product", banner: "Build 7", expected: at.Version{Build: 7}},
		{name: "Marker at end of banner", banner: "SX1262", expected: at.Version{}},
		{name: "Empty", banner: "", expected: at.Version{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := at.ParseVersion([]byte(tt.banner))
			if got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	v := at.Version{Major: 1, Minor: 2, Build: 38}
	if s := v.String(); s != "v1.2 build 38" {
		t.Errorf("Unexpected string %q", s)
	}
}
