package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"WARNING", LevelWarn, false},
		{"critical", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf)
	logger.SetLevel(LevelWarn)

	logger.Debug("[test] debug line")
	logger.Info("[test] info line")
	logger.Warn("[test] warn line")
	logger.Error("[test] error line")

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Errorf("lines below warn were written:\n%s", out)
	}
	if !strings.Contains(out, "warn line") || !strings.Contains(out, "error line") {
		t.Errorf("warn and error lines missing:\n%s", out)
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerTo(&buf)
	derived := base.With("run", "ab12").With("query", "100% cotton")

	derived.Info("[spider] %d rows", 20)
	if got := buf.String(); !strings.Contains(got, "[spider] 20 rows run=ab12 query=100% cotton") {
		t.Errorf("fields not appended: %q", got)
	}

	// the level is shared with loggers derived from it
	base.SetLevel(LevelError)
	buf.Reset()
	derived.Info("[spider] hidden")
	if buf.Len() != 0 {
		t.Errorf("derived logger ignored the base level: %q", buf.String())
	}
}
