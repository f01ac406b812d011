package main

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/garden"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
	"github.com/DevonLowjamski/chimera-genetics/pedigree"
)

// FitnessEvaluator runs headless breeding programs and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	reg         *genetics.Registry
	generations int
	seeds       []int64
	baseConfig  *config.Config

	// Best run tracking
	mu            sync.Mutex
	bestFitness   float64
	bestElites    []byte  // elite archive JSON from the best evaluation
	lastDiversity float64 // diversity from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, reg *genetics.Registry, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		reg:         reg,
		generations: generations,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestElites returns the elite archive JSON from the best evaluation.
func (fe *FitnessEvaluator) BestElites() []byte {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestElites
}

// LastDiversity returns the diversity score from the most recent evaluation.
func (fe *FitnessEvaluator) LastDiversity() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastDiversity
}

// runResult holds the results from a single breeding program run.
type runResult struct {
	bestScore float64 // best objective score reached across all generations
	diversity float64 // final population diversity score
	elites    []byte  // elite archive JSON at the end of the run
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness   float64
	diversity float64
	elites    []byte
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negative best score: higher scores = lower (better) fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result, err := fe.runProgram(x, s)
			if err != nil {
				// Failed runs score as if nothing was bred
				results[idx] = seedResult{fitness: 0}
				return
			}
			results[idx] = seedResult{
				fitness:   computeFitness(result),
				diversity: result.diversity,
				elites:    result.elites,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalDiversity float64
	var bestSeedFitness float64 = math.Inf(1)
	var bestSeedElites []byte

	for _, r := range results {
		totalFitness += r.fitness
		totalDiversity += r.diversity
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedElites = r.elites
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	// Update best tracking
	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestElites = bestSeedElites
	}
	fe.lastDiversity = totalDiversity / n
	fe.mu.Unlock()

	return avgFitness
}

// runProgram executes a single headless breeding program run.
func (fe *FitnessEvaluator) runProgram(x []float64, seed int64) (*runResult, error) {
	// Create a fresh config copy and apply parameters
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	ctx := context.Background()
	store := pedigree.NewMemStore()
	defer store.Close()

	rng := rand.New(rand.NewSource(seed))
	g, err := garden.New(fe.reg, cfg, store, rng)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	if err := g.SeedPopulation(ctx, cfg.Garden.InitialPopulation); err != nil {
		return nil, err
	}

	result := &runResult{}
	for i := 0; i < fe.generations; i++ {
		report, err := g.AdvanceGeneration(ctx, cfg.Derived.Environment)
		if err != nil {
			return nil, err
		}
		if len(report.Evaluated) > 0 {
			if score := report.Evaluated[0].Report.Score; score > result.bestScore {
				result.bestScore = score
			}
		}
	}

	result.diversity = g.Diversity().DiversityScore
	if elites, err := g.Elites().MarshalJSON(); err == nil {
		result.elites = elites
	}
	return result, nil
}

// copyConfig creates a copy of the base config. Shared slices and maps
// (objectives, response curves) are never mutated by ApplyToConfig, so a
// shallow copy of those is safe.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg, _ := config.Load("")

	cfg.Mutation = fe.baseConfig.Mutation
	cfg.Inbreeding = fe.baseConfig.Inbreeding
	cfg.Expression = fe.baseConfig.Expression
	cfg.Environment = fe.baseConfig.Environment
	cfg.Garden = fe.baseConfig.Garden
	cfg.Selection = fe.baseConfig.Selection
	cfg.Elites = fe.baseConfig.Elites
	cfg.Objectives = fe.baseConfig.Objectives
	cfg.Telemetry = fe.baseConfig.Telemetry
	cfg.Derived = fe.baseConfig.Derived

	return cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(bestScore × (1.0 + 0.2 × diversity))
// Objective score dominates; retained diversity adds up to 20% bonus to
// differentiate parameter sets that reach similar scores.
func computeFitness(r *runResult) float64 {
	return -(r.bestScore * (1.0 + 0.2*r.diversity))
}
