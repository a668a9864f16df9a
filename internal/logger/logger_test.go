package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewToFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewTo(&buf, "warn")
	log.Info().Msg("hidden")
	log.Warn().Str("match", "abc").Msg("skipped match")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "skipped match") || !strings.Contains(out, "abc") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNewToUnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewTo(&buf, "loud")
	log.Debug().Msg("verbose-line")
	log.Info().Msg("normal-line")
	if strings.Contains(buf.String(), "verbose-line") {
		t.Errorf("debug line should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "normal-line") {
		t.Errorf("info line missing: %q", buf.String())
	}
}
