package genetics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// LocusDiversity holds the per-locus population statistics.
type LocusDiversity struct {
	Locus Locus

	// Frequencies is the share of each allele symbol among all copies at
	// this locus.
	Frequencies map[string]float64

	// Heterozygosity is the probability two allele copies drawn without
	// replacement differ.
	Heterozygosity float64

	// ObservedHet is the fraction of individuals heterozygous here.
	ObservedHet float64

	// GenotypicDiversity is the probability two individuals drawn without
	// replacement carry different unordered allele pairs. Zero whenever
	// every individual shares one pair.
	GenotypicDiversity float64
}

// PopulationDiversityStats summarizes allele diversity over one population
// snapshot. Recomputed on demand, never persisted as authoritative state.
type PopulationDiversityStats struct {
	Population int
	Loci       []LocusDiversity

	// HeterozygosityIndex is the unweighted mean per-locus heterozygosity.
	HeterozygosityIndex float64

	// DiversityScore is the importance-weighted mean per-locus genotypic
	// diversity: exactly 0 when every individual is genetically identical.
	DiversityScore float64
}

// Analyze computes allele frequencies, heterozygosity, and the diversity
// score over a population snapshot. It reads the genotypes without
// modifying them and may run concurrently with anything. An empty
// population returns a zero-valued report, not an error: a zero score
// means "no data", not "no diversity".
func Analyze(reg *Registry, genotypes []*Genotype) PopulationDiversityStats {
	stats := PopulationDiversityStats{Population: len(genotypes)}
	if len(genotypes) == 0 {
		return stats
	}

	lociSet := make(map[Locus]bool)
	for _, g := range genotypes {
		if g == nil {
			continue
		}
		for _, locus := range g.loci {
			lociSet[locus] = true
		}
	}
	loci := make([]Locus, 0, len(lociSet))
	for locus := range lociSet {
		loci = append(loci, locus)
	}
	if len(loci) == 0 {
		return stats
	}
	sort.Slice(loci, func(i, j int) bool { return loci[i] < loci[j] })

	hets := make([]float64, 0, len(loci))
	genotypic := make([]float64, 0, len(loci))
	weights := make([]float64, 0, len(loci))

	for _, locus := range loci {
		ld := analyzeLocus(locus, genotypes)
		stats.Loci = append(stats.Loci, ld)
		hets = append(hets, ld.Heterozygosity)
		genotypic = append(genotypic, ld.GenotypicDiversity)

		weight := 1.0
		if reg != nil {
			if def, err := reg.Lookup(locus); err == nil {
				weight = def.Importance
			}
		}
		weights = append(weights, weight)
	}

	stats.HeterozygosityIndex = stat.Mean(hets, nil)
	stats.DiversityScore = stat.Mean(genotypic, weights)
	return stats
}

// analyzeLocus tallies one locus across the population.
func analyzeLocus(locus Locus, genotypes []*Genotype) LocusDiversity {
	ld := LocusDiversity{Locus: locus, Frequencies: make(map[string]float64)}

	copies := make(map[string]int)
	pairClasses := make(map[[2]string]int)
	individuals := 0
	hetero := 0

	for _, g := range genotypes {
		if g == nil {
			continue
		}
		pair, ok := g.AllelesAt(locus)
		if !ok {
			continue
		}
		individuals++
		copies[pair[0].Symbol]++
		copies[pair[1].Symbol]++
		if pair.Heterozygous() {
			hetero++
		}
		class := pair.Symbols()
		if class[0] > class[1] {
			class[0], class[1] = class[1], class[0]
		}
		pairClasses[class]++
	}

	if individuals == 0 {
		return ld
	}

	totalCopies := 2 * individuals
	for symbol, count := range copies {
		ld.Frequencies[symbol] = float64(count) / float64(totalCopies)
	}

	if totalCopies > 1 {
		same := 0.0
		for _, count := range copies {
			same += float64(count) * float64(count-1)
		}
		ld.Heterozygosity = 1 - same/(float64(totalCopies)*float64(totalCopies-1))
	}

	ld.ObservedHet = float64(hetero) / float64(individuals)

	if individuals > 1 {
		same := 0.0
		for _, count := range pairClasses {
			same += float64(count) * float64(count-1)
		}
		ld.GenotypicDiversity = 1 - same/(float64(individuals)*float64(individuals-1))
	}

	return ld
}
