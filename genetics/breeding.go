package genetics

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// RelatednessFunc reports whether two parents share recent ancestry. The
// pedigree collaborator supplies one; breeding only consumes the verdict.
type RelatednessFunc func(parentAID, parentBID string) bool

// BreedOptions tune a single breeding call.
type BreedOptions struct {
	// RNG is the explicit random source. Breeding never reads ambient
	// randomness: identical seeds reproduce identical offspring.
	RNG *rand.Rand

	// MutationRate is the per-locus probability of replacing one drawn
	// allele. Clamped to [0, 1].
	MutationRate float64

	// AllowDeNovo widens the mutation pool from the union of the two
	// parents' alleles to the locus's full known-allele set, so mutation
	// can introduce alleles neither parent carries.
	AllowDeNovo bool

	// ParentAID and ParentBID identify the parents for the relatedness
	// check and the breeding report.
	ParentAID string
	ParentBID string

	// Related flags the parents as kin, tagging the offspring inbred.
	// Nil skips the check.
	Related RelatednessFunc
}

// BreedingResult reports one breeding: the offspring genotype plus the
// mutation count, inbreeding flag, and parent identities.
type BreedingResult struct {
	Offspring   *Genotype
	MutatedLoci int
	Inbred      bool
	ParentAID   string
	ParentBID   string
}

// Breed combines two parent genotypes into one offspring via independent
// assortment: per locus, one allele drawn uniformly from each parent's
// pair, maternal slot from parentA, paternal from parentB. Each locus then
// rolls the mutation rate; a firing roll replaces one drawn slot with a
// uniform pick from the mutation pool. Loci assort independently; no
// linkage is modeled.
//
// Breeding is a pure function over its parents: neither is ever mutated,
// and concurrent calls over disjoint RNGs need no synchronization.
func Breed(reg *Registry, parentA, parentB *Genotype, opts BreedOptions) (*BreedingResult, error) {
	if reg == nil {
		return nil, errors.New("breed: nil registry")
	}
	if parentA == nil || parentB == nil {
		return nil, &BreedingError{Code: BreedNullParent}
	}
	if opts.RNG == nil {
		return nil, &BreedingError{Code: BreedMissingRandSource}
	}
	if err := checkPloidy(parentA, parentB); err != nil {
		return nil, err
	}

	rate := clamp(opts.MutationRate, 0, 1)
	inbred := opts.Related != nil && opts.Related(opts.ParentAID, opts.ParentBID)

	loci := append([]Locus(nil), parentA.loci...)
	pairs := make([]AllelePair, len(loci))
	mutated := 0

	for i, locus := range loci {
		fromA := parentA.pairs[i][opts.RNG.Intn(2)]
		fromB := parentB.pairs[i][opts.RNG.Intn(2)]
		pair := AllelePair{fromA, fromB}

		if opts.RNG.Float64() < rate {
			def, err := reg.Lookup(locus)
			if err != nil {
				return nil, &BreedingError{Code: BreedUnknownLocus, Detail: string(locus)}
			}
			pool := mutationPool(def, parentA.pairs[i], parentB.pairs[i], opts.AllowDeNovo)
			slot := opts.RNG.Intn(2)
			replacement := pool[opts.RNG.Intn(len(pool))]
			if replacement.Symbol != pair[slot].Symbol {
				mutated++
			}
			pair[slot] = replacement
		}
		pairs[i] = pair
	}

	return &BreedingResult{
		Offspring:   newGenotype(loci, pairs, inbred),
		MutatedLoci: mutated,
		Inbred:      inbred,
		ParentAID:   opts.ParentAID,
		ParentBID:   opts.ParentBID,
	}, nil
}

// BreedBatch produces n offspring from one parent pair, drawing all
// randomness from the single RNG stream in opts.
func BreedBatch(reg *Registry, parentA, parentB *Genotype, n int, opts BreedOptions) ([]*BreedingResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("breed batch: count %d must be positive", n)
	}
	out := make([]*BreedingResult, 0, n)
	for i := 0; i < n; i++ {
		result, err := Breed(reg, parentA, parentB, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

// checkPloidy rejects parents with different locus sets.
func checkPloidy(a, b *Genotype) error {
	if len(a.loci) != len(b.loci) {
		return &BreedingError{
			Code:   BreedIncompatiblePloidy,
			Detail: fmt.Sprintf("parent loci %d vs %d", len(a.loci), len(b.loci)),
		}
	}
	for i, locus := range a.loci {
		if b.loci[i] != locus {
			return &BreedingError{
				Code:   BreedIncompatiblePloidy,
				Detail: fmt.Sprintf("locus %q vs %q", locus, b.loci[i]),
			}
		}
	}
	return nil
}

// mutationPool collects the alleles a mutation may draw from, sorted by
// symbol so pool order never depends on map or input ordering.
func mutationPool(def *GeneDefinition, a, b AllelePair, allowDeNovo bool) []Allele {
	if allowDeNovo {
		return def.Alleles
	}
	seen := make(map[string]bool, 4)
	pool := make([]Allele, 0, 4)
	for _, allele := range [...]Allele{a[0], a[1], b[0], b[1]} {
		if !seen[allele.Symbol] {
			seen[allele.Symbol] = true
			pool = append(pool, allele)
		}
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].Symbol < pool[j].Symbol })
	return pool
}
