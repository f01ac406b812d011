package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Mutation.Rate != 0.02 {
		t.Errorf("Mutation.Rate = %v, want 0.02", cfg.Mutation.Rate)
	}
	if cfg.Mutation.AllowDeNovo {
		t.Error("Mutation.AllowDeNovo = true, want false")
	}
	if cfg.Inbreeding.Penalty != 0.25 {
		t.Errorf("Inbreeding.Penalty = %v, want 0.25", cfg.Inbreeding.Penalty)
	}
	if cfg.Garden.InitialPopulation != 48 {
		t.Errorf("Garden.InitialPopulation = %d, want 48", cfg.Garden.InitialPopulation)
	}
	if cfg.Selection.Parents != 12 {
		t.Errorf("Selection.Parents = %d, want 12", cfg.Selection.Parents)
	}
	if len(cfg.Objectives) != 3 {
		t.Fatalf("len(Objectives) = %d, want 3", len(cfg.Objectives))
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := `
mutation:
  rate: 0.1
garden:
  initial_population: 10
  max_population: 20
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}
	if cfg.Mutation.Rate != 0.1 {
		t.Errorf("Mutation.Rate = %v, want overlay value 0.1", cfg.Mutation.Rate)
	}
	if cfg.Garden.InitialPopulation != 10 || cfg.Garden.MaxPopulation != 20 {
		t.Errorf("Garden = %+v, want overlay populations 10/20", cfg.Garden)
	}
	// Untouched sections keep their defaults
	if cfg.Inbreeding.Penalty != 0.25 {
		t.Errorf("Inbreeding.Penalty = %v, want default 0.25", cfg.Inbreeding.Penalty)
	}
	if cfg.Selection.OffspringPerPair != 8 {
		t.Errorf("Selection.OffspringPerPair = %d, want default 8", cfg.Selection.OffspringPerPair)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
	}{
		{
			name: "mutation rate above one",
			overlay: `
mutation:
  rate: 1.5
`,
		},
		{
			name: "negative inbreeding penalty",
			overlay: `
inbreeding:
  penalty: -0.1
`,
		},
		{
			name: "unknown response factor",
			overlay: `
environment:
  response:
    gravity:
      optimal: 1.0
      tolerance: 0.5
      weight: 1.0
`,
		},
		{
			name: "zero response tolerance",
			overlay: `
environment:
  response:
    light:
      optimal: 0.8
      tolerance: 0
      weight: 1.0
`,
		},
		{
			name: "initial population above max",
			overlay: `
garden:
  initial_population: 200
  max_population: 100
`,
		},
		{
			name: "single parent",
			overlay: `
selection:
  parents: 1
`,
		},
		{
			name: "negative objective weight",
			overlay: `
objectives:
  - trait: Height
    target: 180
    weight: -1
`,
		},
		{
			name: "unknown objective trait",
			overlay: `
objectives:
  - trait: Luminosity
    target: 1
    weight: 1
`,
		},
		{
			name: "unknown affected category",
			overlay: `
environment:
  affected_categories: [Astrological]
`,
		},
		{
			name: "zero history window",
			overlay: `
telemetry:
  history_window: 0
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.overlay), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestDerivedValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if len(cfg.Derived.Objectives) != len(cfg.Objectives) {
		t.Fatalf("len(Derived.Objectives) = %d, want %d", len(cfg.Derived.Objectives), len(cfg.Objectives))
	}
	if cfg.Derived.Objectives[0].TargetTrait != genetics.Height {
		t.Errorf("Derived.Objectives[0].TargetTrait = %v, want Height", cfg.Derived.Objectives[0].TargetTrait)
	}
	if cfg.Derived.Objectives[1].Weight != 2.0 {
		t.Errorf("Derived.Objectives[1].Weight = %v, want 2.0", cfg.Derived.Objectives[1].Weight)
	}

	if cfg.Derived.Environment.Temperature != cfg.Environment.Profile.Temperature {
		t.Errorf("Derived.Environment.Temperature = %v, want %v",
			cfg.Derived.Environment.Temperature, cfg.Environment.Profile.Temperature)
	}

	for _, category := range []genetics.GeneCategory{
		genetics.Physiological,
		genetics.Developmental,
		genetics.Morphological,
	} {
		if !cfg.Derived.AffectedCategories[category] {
			t.Errorf("Derived.AffectedCategories missing %v", category)
		}
	}
	if cfg.Derived.AffectedCategories[genetics.Biochemical] {
		t.Error("Derived.AffectedCategories contains Biochemical, want absent")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	cfg.Mutation.Rate = 0.07

	path := filepath.Join(t.TempDir(), "effective.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load(written) error: %v", err)
	}
	if loaded.Mutation.Rate != 0.07 {
		t.Errorf("round-tripped Mutation.Rate = %v, want 0.07", loaded.Mutation.Rate)
	}
}
