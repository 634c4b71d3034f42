package logger

import (
	"errors"
	"testing"
)

func TestFieldsBuildsMap(t *testing.T) {
	m := Fields("session_id", "s1", "attempt", 2, "healthy", true)
	if m["session_id"] != "s1" {
		t.Errorf("session_id = %v", m["session_id"])
	}
	if m["attempt"] != 2 {
		t.Errorf("attempt = %v", m["attempt"])
	}
	if m["healthy"] != true {
		t.Errorf("healthy = %v", m["healthy"])
	}
}

func TestFieldsIgnoresMalformedPairs(t *testing.T) {
	m := Fields("key", "value", "dangling")
	if len(m) != 1 || m["key"] != "value" {
		t.Fatalf("unexpected map: %v", m)
	}

	m = Fields(42, "not-a-string-key", "ok", "yes")
	if len(m) != 1 || m["ok"] != "yes" {
		t.Fatalf("non-string keys must be dropped: %v", m)
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("transcribe", errors.New("boom"))
	if m[FieldOperation] != "transcribe" {
		t.Errorf("operation = %v", m[FieldOperation])
	}
	if m[FieldError] != "boom" {
		t.Errorf("error = %v", m[FieldError])
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Fatal("timestamps default on")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{Level: "debug", Format: "json"}, false},
		{"valid console", Config{Level: "info", Format: "console"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithComponentKeepsService(t *testing.T) {
	base := NewDefault("gateway")
	derived := base.WithComponent("orchestrator")
	if derived == base {
		t.Fatal("expected a derived logger")
	}
	if derived.service != "gateway" {
		t.Fatalf("service lost: %q", derived.service)
	}
}

func TestGlobalLoggerFallback(t *testing.T) {
	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected a default global logger")
	}

	custom := NewDefault("custom")
	SetGlobalLogger(custom)
	if GetGlobalLogger() != custom {
		t.Fatal("expected the installed logger")
	}
}
