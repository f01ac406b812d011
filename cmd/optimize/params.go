// Package main provides CMA-ES optimization for breeding-program parameters.
package main

import (
	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Environment profile
			{Name: "temperature", Path: "environment.profile.temperature", Min: 10.0, Max: 40.0, Default: 24.0},
			{Name: "humidity", Path: "environment.profile.humidity", Min: 0.20, Max: 0.95, Default: 0.60},
			{Name: "light", Path: "environment.profile.light", Min: 0.20, Max: 1.00, Default: 0.80},
			{Name: "co2", Path: "environment.profile.co2", Min: 300, Max: 1500, Default: 420},
			{Name: "nutrients", Path: "environment.profile.nutrients", Min: 0.20, Max: 1.00, Default: 0.70},
			// Breeding pressure
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0.001, Max: 0.10, Default: 0.02},
			{Name: "parents", Path: "selection.parents", Min: 4, Max: 24, Default: 12},
			{Name: "carry_elites", Path: "selection.carry_elites", Min: 0, Max: 6, Default: 2},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Clamp values to ensure they're within bounds
	clamped := pv.Clamp(values)

	// Apply each parameter to the config
	// Order must match Specs order
	i := 0

	// Environment profile
	cfg.Environment.Profile.Temperature = clamped[i]; i++
	cfg.Environment.Profile.Humidity = clamped[i]; i++
	cfg.Environment.Profile.Light = clamped[i]; i++
	cfg.Environment.Profile.CO2 = clamped[i]; i++
	cfg.Environment.Profile.Nutrients = clamped[i]; i++

	// Breeding pressure
	cfg.Mutation.Rate = clamped[i]; i++
	cfg.Selection.Parents = int(clamped[i]); i++
	cfg.Selection.CarryElites = int(clamped[i])

	// Keep the derived environment snapshot in sync with the profile
	cfg.Derived.Environment = genetics.Environment{
		Temperature: cfg.Environment.Profile.Temperature,
		Humidity:    cfg.Environment.Profile.Humidity,
		Light:       cfg.Environment.Profile.Light,
		CO2:         cfg.Environment.Profile.CO2,
		Nutrients:   cfg.Environment.Profile.Nutrients,
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		// Environment profile
		cfg.Environment.Profile.Temperature,
		cfg.Environment.Profile.Humidity,
		cfg.Environment.Profile.Light,
		cfg.Environment.Profile.CO2,
		cfg.Environment.Profile.Nutrients,
		// Breeding pressure
		cfg.Mutation.Rate,
		float64(cfg.Selection.Parents),
		float64(cfg.Selection.CarryElites),
	}
}
