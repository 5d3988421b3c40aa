package internal

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"ERROR":   LogLevelError,
		"warn":    LogLevelWarn,
		" debug ": LogLevelDebug,
		"TRACE":   LogLevelTrace,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for input, expected := range tests {
		if got := ParseLogLevel(input); got != expected {
			t.Errorf("ParseLogLevel(%q) = %d, expected %d", input, got, expected)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelInfo).WithOutput(log.New(&buf, "", 0)).WithComponent("Normalizer")

	logger.Debug("hidden %d", 1)
	logger.Info("kept %d rows", 3)
	logger.Error("boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Debug message should be filtered at INFO level")
	}
	if !strings.Contains(out, "[INFO] [Normalizer] kept 3 rows") {
		t.Errorf("Expected tagged info line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] [Normalizer] boom") {
		t.Errorf("Expected tagged error line, got %q", out)
	}
}
