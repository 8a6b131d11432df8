package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Loop != "first_order_p" {
		t.Errorf("loop = %q", cfg.Loop)
	}
	if cfg.Plant.Gain != DefaultPlantGain || cfg.Plant.TimeConstant != DefaultTimeConstant {
		t.Errorf("plant defaults wrong: %+v", cfg.Plant)
	}
	if cfg.Controller.Kp != DefaultKp || cfg.Controller.Tf != DefaultTf {
		t.Errorf("controller defaults wrong: %+v", cfg.Controller)
	}
	if cfg.Freq.Min <= 0 || cfg.Freq.Max <= cfg.Freq.Min || cfg.Freq.Points < 2 {
		t.Errorf("frequency sweep defaults unusable: %+v", cfg.Freq)
	}
	if cfg.Sim.Dt <= 0 || cfg.Sim.Duration <= 0 {
		t.Errorf("sim defaults unusable: %+v", cfg.Sim)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Loop = "integrator_p"
	cfg.Plant.Gain = 3.5
	cfg.Controller.Ki = 0.25
	cfg.Freq.Points = 50

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Loop != "integrator_p" {
		t.Errorf("loop = %q", loaded.Loop)
	}
	if loaded.Plant.Gain != 3.5 {
		t.Errorf("plant gain = %f", loaded.Plant.Gain)
	}
	if loaded.Controller.Ki != 0.25 {
		t.Errorf("ki = %f", loaded.Controller.Ki)
	}
	if loaded.Freq.Points != 50 {
		t.Errorf("points = %d", loaded.Freq.Points)
	}
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("plant:\n  gain: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Plant.Gain != 9 {
		t.Errorf("plant gain = %f, want 9", cfg.Plant.Gain)
	}
	if cfg.Controller.Kp != DefaultKp {
		t.Errorf("kp = %f, want default %f", cfg.Controller.Kp, DefaultKp)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("plant: [not a mapping"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}
