package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestLoggerRecordShape(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "ride-guardian", "debug")
	l.Debug("ride started", "ride_id", "RIDE_1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	for _, k := range []string{"timestamp", "message", "service", "hostname", "ride_id"} {
		if _, ok := rec[k]; !ok {
			t.Fatalf("missing %q in %v", k, rec)
		}
	}
	if rec["service"] != "ride-guardian" || rec["message"] != "ride started" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestLevelFromString(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, " WARN ": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo}
	for in, want := range cases {
		if got := levelFromString(in).Level(); got != want {
			t.Errorf("%q: expected %v, got %v", in, want, got)
		}
	}
}
