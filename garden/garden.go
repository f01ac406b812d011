// Package garden manages a breeding population of plants on an entity
// component store: seeding founders, expressing phenotypes, and advancing
// generations through selection and crossing.
package garden

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
	"github.com/DevonLowjamski/chimera-genetics/pedigree"
)

// Garden holds the breeding population and everything needed to advance
// it: gene registry, tuning, pedigree store, expression cache, and the
// explicit random source all stochastic steps draw from.
type Garden struct {
	world *ecs.World
	rng   *rand.Rand

	reg   *genetics.Registry
	cfg   *config.Config
	store pedigree.Store
	cache *genetics.ExpressionCache

	plantMapper *ecs.Map3[Plant, Genome, Expressed]
	plantFilter *ecs.Filter3[Plant, Genome, Expressed]

	// Individual component mappers for lookups
	plantMap  *ecs.Map1[Plant]
	genomeMap *ecs.Map1[Genome]
	exprMap   *ecs.Map1[Expressed]

	elites *EliteArchive

	generation int
	population int
	pool       *expressPool
}

// New creates an empty garden. All randomness flows from rng: two gardens
// built over the same registry, config, and seed evolve identically.
func New(reg *genetics.Registry, cfg *config.Config, store pedigree.Store, rng *rand.Rand) (*Garden, error) {
	if reg == nil {
		return nil, errors.New("garden: nil registry")
	}
	if cfg == nil {
		return nil, errors.New("garden: nil config")
	}
	if store == nil {
		return nil, errors.New("garden: nil pedigree store")
	}
	if rng == nil {
		return nil, errors.New("garden: nil random source")
	}

	opts := genetics.ExpressOptions{
		Modifier:          NewEnvironmentModifier(reg, cfg),
		InbreedingPenalty: cfg.Inbreeding.Penalty,
	}
	cache, err := genetics.NewExpressionCache(reg, opts, cfg.Expression.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("garden: %w", err)
	}

	world := ecs.NewWorld()
	g := &Garden{
		world: world,
		rng:   rng,
		reg:   reg,
		cfg:   cfg,
		store: store,
		cache: cache,

		plantMapper: ecs.NewMap3[Plant, Genome, Expressed](world),
		plantFilter: ecs.NewFilter3[Plant, Genome, Expressed](world),
		plantMap:    ecs.NewMap1[Plant](world),
		genomeMap:   ecs.NewMap1[Genome](world),
		exprMap:     ecs.NewMap1[Expressed](world),

		elites: NewEliteArchive(cfg.Elites.Capacity, cfg.Elites.TournamentK, rng),
		pool:   newExpressPool(cfg.Garden.Workers, cfg.Garden.ParallelThreshold),
	}
	return g, nil
}

// SeedPopulation fills an empty garden with n founders carrying uniform
// random allele pairs, and records their births as parentless.
func (g *Garden) SeedPopulation(ctx context.Context, n int) error {
	if n <= 0 {
		return fmt.Errorf("garden: founder count %d must be positive", n)
	}
	if g.population > 0 {
		return errors.New("garden: seeding a non-empty garden")
	}

	loci := g.reg.Loci()
	for i := 0; i < n; i++ {
		assignment := make(map[genetics.Locus][2]string, len(loci))
		for _, locus := range loci {
			def, err := g.reg.Lookup(locus)
			if err != nil {
				return fmt.Errorf("garden: %w", err)
			}
			assignment[locus] = [2]string{
				def.Alleles[g.rng.Intn(len(def.Alleles))].Symbol,
				def.Alleles[g.rng.Intn(len(def.Alleles))].Symbol,
			}
		}
		genotype, err := genetics.NewGenotype(g.reg, assignment)
		if err != nil {
			return fmt.Errorf("garden: founder genotype: %w", err)
		}

		id, err := g.newPlantID()
		if err != nil {
			return err
		}
		if err := g.store.AddBirth(ctx, pedigree.Record{ID: id, Generation: g.generation}); err != nil {
			return fmt.Errorf("garden: recording founder birth: %w", err)
		}
		g.addPlant(id, g.generation, "", "", genotype)
	}
	return nil
}

// newPlantID draws a UUID from the garden's random source, so plant
// identities replay exactly from the seed.
func (g *Garden) newPlantID() (string, error) {
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return "", fmt.Errorf("garden: generating plant ID: %w", err)
	}
	return u.String(), nil
}

// addPlant creates the entity for one plant.
func (g *Garden) addPlant(id string, generation int, parentA, parentB string, genotype *genetics.Genotype) {
	plant := Plant{ID: id, Generation: generation, ParentA: parentA, ParentB: parentB}
	genome := Genome{G: genotype}
	expressed := Expressed{}

	g.plantMapper.NewEntity(&plant, &genome, &expressed)
	g.population++
}

// Population returns the number of live plants.
func (g *Garden) Population() int {
	return g.population
}

// Generation returns the current generation index.
func (g *Garden) Generation() int {
	return g.generation
}

// Elites returns the garden's elite archive.
func (g *Garden) Elites() *EliteArchive {
	return g.elites
}

// CacheStats reports expression cache hits, misses, and entry count.
func (g *Garden) CacheStats() (hits, misses uint64, size int) {
	return g.cache.Stats()
}

// PlantView is one plant's full state, as captured for snapshots.
type PlantView struct {
	ID         string
	Generation int
	ParentA    string
	ParentB    string
	Genotype   *genetics.Genotype
}

// Plants returns every live plant sorted by ID, so captures of the same
// population are byte-stable.
func (g *Garden) Plants() []PlantView {
	out := make([]PlantView, 0, g.population)

	query := g.plantFilter.Query()
	for query.Next() {
		plant, genome, _ := query.Get()
		out = append(out, PlantView{
			ID:         plant.ID,
			Generation: plant.Generation,
			ParentA:    plant.ParentA,
			ParentB:    plant.ParentB,
			Genotype:   genome.G,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Genotypes returns the live population's genotypes for diversity
// analysis.
func (g *Garden) Genotypes() []*genetics.Genotype {
	out := make([]*genetics.Genotype, 0, g.population)
	query := g.plantFilter.Query()
	for query.Next() {
		_, genome, _ := query.Get()
		out = append(out, genome.G)
	}
	return out
}

// Diversity analyzes the live population.
func (g *Garden) Diversity() genetics.PopulationDiversityStats {
	return genetics.Analyze(g.reg, g.Genotypes())
}

// Restore repopulates an empty garden from captured plant state and sets
// the generation counter. Pedigree records are restored separately by the
// snapshot layer.
func (g *Garden) Restore(generation int, plants []PlantView) error {
	if g.population > 0 {
		return errors.New("garden: restoring into a non-empty garden")
	}
	if generation < 0 {
		return fmt.Errorf("garden: generation %d negative", generation)
	}
	for _, p := range plants {
		if p.ID == "" {
			return errors.New("garden: restored plant has no ID")
		}
		if p.Genotype == nil {
			return fmt.Errorf("garden: restored plant %s has no genotype", p.ID)
		}
		g.addPlant(p.ID, p.Generation, p.ParentA, p.ParentB, p.Genotype)
	}
	g.generation = generation
	return nil
}

// Close stops the expression worker pool.
func (g *Garden) Close() {
	if g.pool != nil {
		g.pool.stopWorkers()
	}
}
