package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.TickRateHz != 60 || d.Seed != 1337 || d.StartAltitude != 120 || d.Workers != 2 {
		t.Fatalf("defaults: %+v", d)
	}
	if !d.Telemetry.TickLog || !d.Telemetry.EventLog || !d.Telemetry.Index {
		t.Fatalf("telemetry defaults: %+v", d.Telemetry)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("missing file returned no error")
	}
	if got != Defaults() {
		t.Fatalf("fallback: %+v", got)
	}
}

func TestLoad_PartialFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: 30\nworkers: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.TickRateHz != 30 || got.Workers != 4 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.Seed != 1337 || got.ProtocolVersion != "1.0" {
		t.Fatalf("defaults lost: %+v", got)
	}
}

func TestLoad_GuardsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: -5\nworkers: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.TickRateHz != 60 {
		t.Fatalf("tick rate guard: %d", got.TickRateHz)
	}
	if got.Workers != 1 {
		t.Fatalf("workers guard: %d", got.Workers)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: [oops\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}
