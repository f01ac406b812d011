// Package telemetry turns generation reports into stats rows, milestone
// events, and experiment output files.
package telemetry

import (
	"log/slog"
	"sort"

	"github.com/DevonLowjamski/chimera-genetics/garden"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

// GenerationStats holds aggregated statistics for one generation advance.
type GenerationStats struct {
	Generation int `csv:"generation"`

	// Population composition after the advance
	Population int `csv:"population"`
	Carried    int `csv:"carried"`
	Newborn    int `csv:"newborn"`

	// Score distribution over the evaluated generation
	Evaluated int     `csv:"evaluated"`
	BestID    string  `csv:"best_id"`
	BestScore float64 `csv:"best_score"`
	MeanScore float64 `csv:"mean_score"`
	ScoreP10  float64 `csv:"score_p10"`
	ScoreP50  float64 `csv:"score_p50"`
	ScoreP90  float64 `csv:"score_p90"`

	// Breeding events during the advance
	MutatedLoci  int `csv:"mutated_loci"`
	InbredBirths int `csv:"inbred_births"`

	// Diversity of the new population
	DiversityScore float64 `csv:"diversity"`
	Heterozygosity float64 `csv:"heterozygosity"`
}

// TraitStats holds the expressed-value distribution of one trait over the
// evaluated generation. One row per trait per generation.
type TraitStats struct {
	Generation int     `csv:"generation"`
	Trait      string  `csv:"trait"`
	BestValue  float64 `csv:"best_value"`
	MeanValue  float64 `csv:"mean_value"`
	ValueP10   float64 `csv:"value_p10"`
	ValueP50   float64 `csv:"value_p50"`
	ValueP90   float64 `csv:"value_p90"`
}

// ComputeGenerationStats flattens a generation report into one stats row.
func ComputeGenerationStats(report *garden.GenerationReport) GenerationStats {
	stats := GenerationStats{
		Generation:     report.Generation,
		Population:     report.Population,
		Carried:        report.Carried,
		Newborn:        report.Newborn,
		Evaluated:      len(report.Evaluated),
		MutatedLoci:    report.MutatedLoci,
		InbredBirths:   report.InbredBirths,
		DiversityScore: report.Diversity.DiversityScore,
		Heterozygosity: report.Diversity.HeterozygosityIndex,
	}

	if len(report.Evaluated) == 0 {
		return stats
	}

	// Candidates arrive ranked best-first.
	stats.BestID = report.Evaluated[0].ID
	stats.BestScore = report.Evaluated[0].Report.Score

	scores := make([]float64, len(report.Evaluated))
	for i, rc := range report.Evaluated {
		scores[i] = rc.Report.Score
	}
	stats.MeanScore, stats.ScoreP10, stats.ScoreP50, stats.ScoreP90 = ComputeScoreStats(scores)

	return stats
}

// ComputeTraitStats builds per-trait distribution rows from a generation
// report, ordered by trait name so output is reproducible.
func ComputeTraitStats(report *garden.GenerationReport) []TraitStats {
	if len(report.Evaluated) == 0 {
		return nil
	}

	traits := make(map[genetics.TraitType][]float64)
	for _, rc := range report.Evaluated {
		for trait, value := range rc.Profile.Values {
			traits[trait] = append(traits[trait], value)
		}
	}

	names := make([]genetics.TraitType, 0, len(traits))
	for trait := range traits {
		names = append(names, trait)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })

	best := report.Evaluated[0].Profile
	rows := make([]TraitStats, 0, len(names))
	for _, trait := range names {
		mean, p10, p50, p90 := ComputeScoreStats(traits[trait])
		row := TraitStats{
			Generation: report.Generation,
			Trait:      trait.String(),
			MeanValue:  mean,
			ValueP10:   p10,
			ValueP50:   p50,
			ValueP90:   p90,
		}
		if v, ok := best.Value(trait); ok {
			row.BestValue = v
		}
		rows = append(rows, row)
	}

	return rows
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeScoreStats calculates mean and percentiles from a value sample.
func ComputeScoreStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	// Calculate mean
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Int("carried", s.Carried),
		slog.Int("newborn", s.Newborn),
		slog.Int("evaluated", s.Evaluated),
		slog.String("best_id", s.BestID),
		slog.Float64("best_score", s.BestScore),
		slog.Float64("mean_score", s.MeanScore),
		slog.Float64("score_p10", s.ScoreP10),
		slog.Float64("score_p50", s.ScoreP50),
		slog.Float64("score_p90", s.ScoreP90),
		slog.Int("mutated_loci", s.MutatedLoci),
		slog.Int("inbred_births", s.InbredBirths),
		slog.Float64("diversity", s.DiversityScore),
		slog.Float64("heterozygosity", s.Heterozygosity),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("stats",
		"generation", s.Generation,
		"population", s.Population,
		"carried", s.Carried,
		"newborn", s.Newborn,
		"evaluated", s.Evaluated,
		"best_id", s.BestID,
		"best_score", s.BestScore,
		"mean_score", s.MeanScore,
		"score_p10", s.ScoreP10,
		"score_p50", s.ScoreP50,
		"score_p90", s.ScoreP90,
		"mutated_loci", s.MutatedLoci,
		"inbred_births", s.InbredBirths,
		"diversity", s.DiversityScore,
		"heterozygosity", s.Heterozygosity,
	)
}
