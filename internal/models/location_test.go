package models

import (
	"testing"

	"github.com/mobil-koeln/ojp-sign/internal/testutil"
)

func TestStationNameOnly(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Zürich, Bucheggplatz", "Bucheggplatz"},
		{"Bern, Bahnhof, Nord", "Nord"},
		{"Bucheggplatz", "Bucheggplatz"},
		{"  Zürich HB  ", "Zürich HB"},
		{"Zürich,", "Zürich"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			testutil.AssertEqual(t, StationNameOnly(tt.in), tt.want)
		})
	}
}

func TestToASCII(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Zürich", "Zuerich"},
		{"Bahnhofstraße", "Bahnhofstrasse"},
		{"Genève", "Geneve"},
		{"ÖV", "OeV"},
		{"plain", "plain"},
		{"5′", "5'"},
		{"→", "?"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			testutil.AssertEqual(t, ToASCII(tt.in), tt.want)
		})
	}
}

func TestStopSearchResult_DisplayName(t *testing.T) {
	testutil.AssertEqual(t, StopSearchResult{Name: "Bucheggplatz", Locality: "Zürich"}.DisplayName(), "Bucheggplatz, Zürich")
	testutil.AssertEqual(t, StopSearchResult{Name: "Zürich, Bucheggplatz", Locality: "Zürich"}.DisplayName(), "Zürich, Bucheggplatz")
	testutil.AssertEqual(t, StopSearchResult{Name: "Bern"}.DisplayName(), "Bern")
}

func TestStationConfig_Configured(t *testing.T) {
	testutil.AssertFalse(t, StationConfig{Name: "x"}.Configured())
	testutil.AssertTrue(t, StationConfig{ID: "8591123"}.Configured())
}
