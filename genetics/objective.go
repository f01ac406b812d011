package genetics

import (
	"math"
	"sort"
)

// BreedingObjective is one weighted trait target. A breeding goal is a set
// of these; goals are always data, never named presets.
type BreedingObjective struct {
	TargetTrait TraitType
	TargetValue float64
	Weight      float64
}

// ObjectiveScore is the per-objective breakdown inside a ScoreReport.
type ObjectiveScore struct {
	Objective BreedingObjective

	// Actual is the phenotype's value for the target trait.
	Actual float64

	// Closeness is 1 - clamp(|actual-target|/referenceRange, 0, 1), where
	// referenceRange is the backing gene's declared range width.
	Closeness float64

	// Weighted is Closeness times the objective's weight.
	Weighted float64

	// TraitMissing marks objectives whose trait has no backing gene or no
	// expressed value; they score zero closeness but keep their weight.
	TraitMissing bool
}

// ScoreReport scores one phenotype against a breeding goal.
type ScoreReport struct {
	Score      float64
	Undefined  bool
	Objectives []ObjectiveScore
}

// Score evaluates a phenotype profile against weighted objectives. The
// final score is the weight-normalized closeness sum; a goal whose weights
// total zero reports Undefined instead of dividing by zero. Negative
// weights are treated as zero.
func Score(reg *Registry, profile PhenotypeProfile, objectives []BreedingObjective) ScoreReport {
	report := ScoreReport{Objectives: make([]ObjectiveScore, 0, len(objectives))}
	var sum, total float64

	for _, obj := range objectives {
		weight := math.Max(obj.Weight, 0)
		entry := ObjectiveScore{Objective: obj}

		def, err := reg.ByTrait(obj.TargetTrait)
		actual, expressed := profile.Value(obj.TargetTrait)
		if err != nil || !expressed {
			entry.TraitMissing = true
		} else {
			entry.Actual = actual
			entry.Closeness = 1 - clamp(math.Abs(actual-obj.TargetValue)/def.Range(), 0, 1)
		}

		entry.Weighted = entry.Closeness * weight
		sum += entry.Weighted
		total += weight
		report.Objectives = append(report.Objectives, entry)
	}

	if total == 0 {
		report.Undefined = true
		return report
	}
	report.Score = sum / total
	return report
}

// Candidate is one individual offered for ranking.
type Candidate struct {
	ID      string
	Profile PhenotypeProfile
	Inbred  bool
}

// RankedCandidate pairs a candidate with its score report.
type RankedCandidate struct {
	Candidate
	Report ScoreReport
}

// RankCandidates scores and orders candidates best-first. Equal scores
// break by higher raw value on the highest-weight objective (first listed
// among equal weights), then non-inbred before inbred, then ID order, so
// selection is reproducible.
func RankCandidates(reg *Registry, candidates []Candidate, objectives []BreedingObjective) []RankedCandidate {
	ranked := make([]RankedCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = RankedCandidate{Candidate: c, Report: Score(reg, c.Profile, objectives)}
	}

	keyTrait := TraitUnknown
	bestWeight := math.Inf(-1)
	for _, obj := range objectives {
		if obj.Weight > bestWeight {
			bestWeight = obj.Weight
			keyTrait = obj.TargetTrait
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Report.Score != b.Report.Score {
			return a.Report.Score > b.Report.Score
		}
		if keyTrait != TraitUnknown {
			av, aok := a.Profile.Value(keyTrait)
			bv, bok := b.Profile.Value(keyTrait)
			if aok && bok && av != bv {
				return av > bv
			}
		}
		if a.Inbred != b.Inbred {
			return !a.Inbred
		}
		return a.ID < b.ID
	})
	return ranked
}
