package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/ojp-sign/internal/testutil"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			testutil.AssertEqual(t, ParseLevel(tt.in), tt.want)
		})
	}
}

func TestNew_JSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(Options{Level: "debug", Output: &buf}), "transport")

	log.Info().Str("stop", "8503000").Msg("fetch ok")

	var line map[string]any
	testutil.AssertNil(t, json.Unmarshal(buf.Bytes(), &line))
	testutil.AssertEqual(t, line["component"], any("transport"))
	testutil.AssertEqual(t, line["stop"], any("8503000"))
	testutil.AssertEqual(t, line["message"], any("fetch ok"))
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Output: &buf})

	log.Info().Msg("hidden")
	testutil.AssertEqual(t, buf.Len(), 0)

	log.Warn().Msg("shown")
	testutil.AssertContains(t, buf.String(), "shown")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Format: FormatConsole, Output: &buf})

	log.Info().Msg("hello")
	testutil.AssertContains(t, buf.String(), "hello")
	testutil.AssertNotContains(t, buf.String(), `"message"`)
}
