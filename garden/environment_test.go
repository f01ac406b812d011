package garden

import (
	"math"
	"testing"

	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

// optimalEnv sits every factor exactly on the default response optima.
func optimalEnv() genetics.Environment {
	return genetics.Environment{
		Temperature: 24.0,
		Humidity:    0.60,
		Light:       0.85,
		CO2:         800.0,
		Nutrients:   0.75,
	}
}

func TestEnvironmentStress(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	curves := cfg.Environment.Response

	// Weighted mean over the default curve weights: 1.0 + 0.6 + 1.0 + 0.4 + 0.8
	const totalWeight = 3.8

	tests := []struct {
		name string
		env  genetics.Environment
		want float64
	}{
		{"all factors at optimum", optimalEnv(), 0},
		{
			"temperature at tolerance edge",
			genetics.Environment{Temperature: 32.0, Humidity: 0.60, Light: 0.85, CO2: 800.0, Nutrients: 0.75},
			1.0 / totalWeight,
		},
		{
			"temperature far past tolerance clamps",
			genetics.Environment{Temperature: 48.0, Humidity: 0.60, Light: 0.85, CO2: 800.0, Nutrients: 0.75},
			1.0 / totalWeight,
		},
		{
			"half a tolerance of humidity drift",
			genetics.Environment{Temperature: 24.0, Humidity: 0.725, Light: 0.85, CO2: 800.0, Nutrients: 0.75},
			0.5 * 0.6 / totalWeight,
		},
		{
			"everything maximally stressed",
			genetics.Environment{Temperature: 60.0, Humidity: 0.0, Light: 0.0, CO2: 0.0, Nutrients: 0.0},
			1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := environmentStress(curves, tt.env)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("environmentStress = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnvironmentStressIgnoresUnusableCurves(t *testing.T) {
	curves := map[string]config.ResponseCurve{
		"temperature": {Optimal: 24.0, Tolerance: 8.0, Weight: 1.0},
		"humidity":    {Optimal: 0.60, Tolerance: 0.0, Weight: 1.0}, // zero tolerance skipped
		"light":       {Optimal: 0.85, Tolerance: 0.35, Weight: 0},  // zero weight skipped
	}

	env := genetics.Environment{Temperature: 28.0, Humidity: 0.0, Light: 0.0}
	got := environmentStress(curves, env)

	// Only temperature counts: |28-24|/8 = 0.5
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("environmentStress = %v, want 0.5", got)
	}

	if got := environmentStress(map[string]config.ResponseCurve{}, env); got != 0 {
		t.Errorf("environmentStress with no curves = %v, want 0", got)
	}
}

func TestNewEnvironmentModifier(t *testing.T) {
	reg := testRegistry(t)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	modifier := NewEnvironmentModifier(reg, cfg)

	// At the optima, affected traits express unmodified.
	m := modifier(genetics.Height, optimalEnv())
	if math.Abs(m.Scale-1) > 1e-9 || m.Offset != 0 {
		t.Errorf("optimal modifier = %+v, want neutral", m)
	}

	// Under drift, an affected trait scales down by stress times max_penalty.
	stressed := optimalEnv()
	stressed.Temperature = 32.0
	stress := 1.0 / 3.8
	wantScale := 1 - stress*cfg.Environment.MaxPenalty

	m = modifier(genetics.Height, stressed)
	if math.Abs(m.Scale-wantScale) > 1e-9 {
		t.Errorf("stressed Height scale = %v, want %v", m.Scale, wantScale)
	}

	// Resistance genes sit outside the affected categories.
	m = modifier(genetics.DiseaseResistance, stressed)
	if m != genetics.NeutralModifier() {
		t.Errorf("DiseaseResistance modifier = %+v, want neutral", m)
	}

	// So do biochemical genes.
	m = modifier(genetics.FlowerColor, stressed)
	if m != genetics.NeutralModifier() {
		t.Errorf("FlowerColor modifier = %+v, want neutral", m)
	}

	// Traits without a backing gene express unmodified rather than failing.
	m = modifier(genetics.TraitUnknown, stressed)
	if m != genetics.NeutralModifier() {
		t.Errorf("unknown trait modifier = %+v, want neutral", m)
	}
}
