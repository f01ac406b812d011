package garden

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

// factorOrder fixes the iteration order over environment factors so the
// stress sum is bit-identical across runs.
var factorOrder = [...]string{"temperature", "humidity", "light", "co2", "nutrients"}

// NewEnvironmentModifier builds the expression modifier from the
// configured response curves. Traits backed by genes in an affected
// category scale down as the environment drifts from its optima; all other
// traits express unmodified.
func NewEnvironmentModifier(reg *genetics.Registry, cfg *config.Config) genetics.ModifierFunc {
	curves := cfg.Environment.Response
	maxPenalty := cfg.Environment.MaxPenalty
	affected := cfg.Derived.AffectedCategories

	return func(trait genetics.TraitType, env genetics.Environment) genetics.Modifier {
		def, err := reg.ByTrait(trait)
		if err != nil || !affected[def.Category] {
			return genetics.NeutralModifier()
		}
		stress := environmentStress(curves, env)
		return genetics.Modifier{Scale: 1 - stress*maxPenalty}
	}
}

// Stress reports the weighted environment stress under a config's response
// curves, for tools that preview environments before committing to a run.
func Stress(cfg *config.Config, env genetics.Environment) float64 {
	return environmentStress(cfg.Environment.Response, env)
}

// environmentStress is the weighted mean of per-factor deviations from
// optimum, each clamped to one tolerance width. 0 means every factor sits
// at its optimum, 1 means every factor is at or past tolerance.
func environmentStress(curves map[string]config.ResponseCurve, env genetics.Environment) float64 {
	readings := readingsFor(env)

	deviations := make([]float64, 0, len(factorOrder))
	weights := make([]float64, 0, len(factorOrder))
	for i, factor := range factorOrder {
		curve, ok := curves[factor]
		if !ok || curve.Weight <= 0 || curve.Tolerance <= 0 {
			continue
		}
		dev := math.Abs(readings[i]-curve.Optimal) / curve.Tolerance
		if dev > 1 {
			dev = 1
		}
		deviations = append(deviations, dev)
		weights = append(weights, curve.Weight)
	}
	if len(deviations) == 0 {
		return 0
	}
	return stat.Mean(deviations, weights)
}

// readingsFor orders the environment's factor readings to match factorOrder.
func readingsFor(env genetics.Environment) [len(factorOrder)]float64 {
	return [...]float64{
		env.Temperature,
		env.Humidity,
		env.Light,
		env.CO2,
		env.Nutrients,
	}
}
