package main

import (
	"testing"

	"github.com/chazu/dexpatch/manifest"
)

func TestStopOnErrorSetting(t *testing.T) {
	manifestStop := &manifest.Manifest{Apply: manifest.Apply{StopOnError: true}}
	manifestRun := &manifest.Manifest{}

	cases := []struct {
		name      string
		flagValue bool
		flagGiven bool
		m         *manifest.Manifest
		want      bool
	}{
		{"default without manifest", false, false, nil, false},
		{"manifest enables", false, false, manifestStop, true},
		{"manifest stays off", false, false, manifestRun, false},
		{"explicit flag overrides manifest off", false, true, manifestStop, false},
		{"explicit flag overrides manifest on", true, true, manifestRun, true},
		{"flag without manifest", true, true, nil, true},
	}

	for _, tc := range cases {
		if got := stopOnErrorSetting(tc.flagValue, tc.flagGiven, tc.m); got != tc.want {
			t.Errorf("%s: stopOnErrorSetting(%v, %v) = %v, want %v",
				tc.name, tc.flagValue, tc.flagGiven, got, tc.want)
		}
	}
}
