package genetics

import (
	"errors"
	"fmt"
	"sort"
)

// PhenotypeProfile holds expressed trait values for one (genotype,
// environment) pair. It is derived data: never stored as authoritative
// state, always recomputable.
type PhenotypeProfile struct {
	// Values maps each expressed trait to its final value.
	Values map[TraitType]float64

	// Codominant retains both raw contributions for codominant loci, in
	// maternal, paternal order, before environment adjustment.
	Codominant map[TraitType][2]float64
}

// Value returns the expressed value for a trait.
func (p PhenotypeProfile) Value(t TraitType) (float64, bool) {
	v, ok := p.Values[t]
	return v, ok
}

// Traits returns the expressed traits in enum order, for deterministic
// iteration.
func (p PhenotypeProfile) Traits() []TraitType {
	out := make([]TraitType, 0, len(p.Values))
	for t := range p.Values {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// clone deep-copies the profile so cached entries stay private.
func (p PhenotypeProfile) clone() PhenotypeProfile {
	out := PhenotypeProfile{Values: make(map[TraitType]float64, len(p.Values))}
	for t, v := range p.Values {
		out.Values[t] = v
	}
	if p.Codominant != nil {
		out.Codominant = make(map[TraitType][2]float64, len(p.Codominant))
		for t, v := range p.Codominant {
			out.Codominant[t] = v
		}
	}
	return out
}

// ExpressOptions tune a single expression pass.
type ExpressOptions struct {
	// Modifier supplies the per-trait environment adjustment. Nil leaves
	// every base value unmodified.
	Modifier ModifierFunc

	// Composite blends codominant contribution pairs. Nil exposes the
	// arithmetic mean.
	Composite CompositeFunc

	// InbreedingPenalty is the fraction removed from inbreeding-sensitive
	// trait values when the genotype carries the inbred tag. Clamped to
	// [0, 1].
	InbreedingPenalty float64

	// Traits restricts expression to a subset. Nil expresses every trait
	// the registry backs.
	Traits []TraitType
}

// Express derives a phenotype profile from a genotype under an environment
// snapshot. It is a pure function: same inputs, same profile, no side
// effects, safe from any number of goroutines.
//
// A requested trait with no backing locus yields an UnknownTraitError; the
// returned profile still holds every backed trait, so callers may treat
// the error as "not applicable" rather than fatal.
func Express(reg *Registry, g *Genotype, env Environment, opts ExpressOptions) (PhenotypeProfile, error) {
	if reg == nil {
		return PhenotypeProfile{}, errors.New("express: nil registry")
	}
	if g == nil {
		return PhenotypeProfile{}, errors.New("express: nil genotype")
	}

	var want map[TraitType]bool
	if opts.Traits != nil {
		want = make(map[TraitType]bool, len(opts.Traits))
		for _, t := range opts.Traits {
			want[t] = true
		}
	}

	penalty := clamp(opts.InbreedingPenalty, 0, 1)
	profile := PhenotypeProfile{Values: make(map[TraitType]float64, len(g.loci))}

	for i, locus := range g.loci {
		def, err := reg.Lookup(locus)
		if err != nil {
			return PhenotypeProfile{}, fmt.Errorf("express: %w", err)
		}
		if want != nil && !want[def.Trait] {
			continue
		}

		pair := g.pairs[i]
		var base float64
		switch def.Dominance {
		case DominanceIncomplete:
			base = (pair[0].Contribution + pair[1].Contribution) / 2
		case DominanceCodominant:
			if profile.Codominant == nil {
				profile.Codominant = make(map[TraitType][2]float64)
			}
			profile.Codominant[def.Trait] = [2]float64{pair[0].Contribution, pair[1].Contribution}
			if opts.Composite != nil {
				base = opts.Composite(def.Trait, pair[0].Contribution, pair[1].Contribution)
			} else {
				base = (pair[0].Contribution + pair[1].Contribution) / 2
			}
		default:
			base = dominantContribution(pair)
		}

		mod := NeutralModifier()
		if opts.Modifier != nil {
			mod = opts.Modifier(def.Trait, env)
		}
		v := base*mod.Scale + mod.Offset

		if g.inbred && def.InbreedingSensitive && penalty > 0 {
			v *= 1 - penalty
		}

		profile.Values[def.Trait] = def.Clamp(v)
	}

	if want != nil {
		for _, t := range opts.Traits {
			if _, ok := profile.Values[t]; !ok {
				return profile, &UnknownTraitError{Trait: t}
			}
		}
	}
	return profile, nil
}

// ExpressTrait expresses a single trait.
func ExpressTrait(reg *Registry, g *Genotype, env Environment, trait TraitType, opts ExpressOptions) (float64, error) {
	opts.Traits = []TraitType{trait}
	profile, err := Express(reg, g, env, opts)
	if err != nil {
		return 0, err
	}
	return profile.Values[trait], nil
}

// dominantContribution resolves complete dominance: the higher-rank
// allele's contribution wins. Equal ranks fall back to the mean, the same
// resolution incomplete dominance uses.
func dominantContribution(pair AllelePair) float64 {
	switch {
	case pair[0].Rank > pair[1].Rank:
		return pair[0].Contribution
	case pair[1].Rank > pair[0].Rank:
		return pair[1].Contribution
	default:
		return (pair[0].Contribution + pair[1].Contribution) / 2
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
