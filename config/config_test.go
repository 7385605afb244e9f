package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdftools/observability"
	"github.com/wudi/pdftools/recovery"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pdftools.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
engine:
  scale_factor: 0.9
  strategy: strict
security:
  key_length: 256
watermark:
  font: Times-Bold
  disabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Default()
	want.Log = Log{Level: "debug", Format: "json"}
	want.Engine = Engine{ScaleFactor: 0.9, Strategy: "strict"}
	want.Security.KeyLength = 256
	want.Watermark.Font = "Times-Bold"
	want.Watermark.Disabled = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\nengine:\n  strategy: strict\n")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvStrategy, "lenient")
	t.Setenv(EnvKeyLength, "40")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Engine.Strategy != "lenient" || cfg.Security.KeyLength != 40 {
		t.Errorf("engine = %+v, key length = %d", cfg.Engine, cfg.Security.KeyLength)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "BadYAML", body: "log: [unterminated"},
		{name: "BadLevel", body: "log:\n  level: loud\n"},
		{name: "BadFormat", body: "log:\n  format: xml\n"},
		{name: "BadScale", body: "engine:\n  scale_factor: -1\n"},
		{name: "BadStrategy", body: "engine:\n  strategy: optimistic\n"},
		{name: "BadKeyLength", body: "security:\n  key_length: 64\n"},
		{name: "RC4With256", body: "security:\n  key_length: 256\n  use_aes: false\n"},
		{name: "BadPermissions", body: "security:\n  permissions: some\n"},
		{name: "BadEnvKeyLength", env: map[string]string{EnvKeyLength: "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.Engine.Strategy = "strict"
	cfg.Engine.ScaleFactor = 0.8
	cfg.Watermark.LabelFont = "Courier"
	cfg.Watermark.Disabled = true

	ec, err := cfg.EngineConfig(observability.NopLogger{})
	if err != nil {
		t.Fatalf("EngineConfig failed: %v", err)
	}
	if _, ok := ec.Recovery.(*recovery.StrictStrategy); !ok {
		t.Errorf("Recovery = %T, want *recovery.StrictStrategy", ec.Recovery)
	}
	if ec.Optimize.ScaleFactor != 0.8 || !ec.Optimize.CompressStreams {
		t.Errorf("Optimize = %+v", ec.Optimize)
	}
	if ec.Overlay.LabelFont != "Courier" || ec.Overlay.Font != "Helvetica-Bold" {
		t.Errorf("Overlay fonts = %q, %q", ec.Overlay.Font, ec.Overlay.LabelFont)
	}
	if !ec.DisableWatermark {
		t.Error("DisableWatermark not carried over")
	}
	if ec.Encryption.KeyLength != 128 || !ec.Encryption.UseAES {
		t.Errorf("Encryption = %+v", ec.Encryption)
	}
	if ec.Tracer == nil {
		t.Error("no tracer")
	}
}
