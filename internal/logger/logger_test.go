package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = &buf
	if err := Setup(cfg); err != nil {
		t.Fatalf("setup: %v", err)
	}
	l := WithComponent("reconcile")
	l.Info().Int("planned", 3).Msg("plan ready")
	out := buf.String()
	if !strings.Contains(out, `"component":"reconcile"`) || !strings.Contains(out, `"planned":3`) {
		t.Fatalf("unexpected log line %q", out)
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	if err := Setup(cfg); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
