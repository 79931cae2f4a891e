package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriter_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Component(NewWithWriter(&buf, "warn", "json"), "market")

	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}

	l.Warn().Str("source", "gold").Msg("fallback")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v (%q)", err, buf.String())
	}
	if entry["component"] != "market" || entry["source"] != "gold" || entry["message"] != "fallback" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestNewWithWriter_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "loud", "json")
	l.Debug().Msg("hidden")
	l.Info().Msg("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) || bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
