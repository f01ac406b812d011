package garden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/DevonLowjamski/chimera-genetics/genetics"
	"github.com/DevonLowjamski/chimera-genetics/pedigree"
)

// GenerationReport summarizes one generation advance: the ranking of the
// evaluated generation plus the composition of the one replacing it.
type GenerationReport struct {
	// Generation is the index of the generation just planted.
	Generation int

	// Evaluated ranks the previous generation best-first.
	Evaluated []genetics.RankedCandidate

	Population   int
	Carried      int
	Newborn      int
	MutatedLoci  int
	InbredBirths int

	// Diversity covers the new population.
	Diversity genetics.PopulationDiversityStats
}

// livePlant pairs a plant's entity with the state ranking needs.
type livePlant struct {
	entity   ecs.Entity
	plant    Plant
	genotype *genetics.Genotype
}

// parentStock is one selected breeding parent.
type parentStock struct {
	id       string
	genotype *genetics.Genotype
}

// AdvanceGeneration runs one full breeding cycle: express the population
// under env, rank it against the configured objectives, archive elites,
// select the top plants as breeding stock, cross consecutive ranked pairs,
// and replace the population with carried elites plus offspring. Every
// random draw comes from the garden's RNG in a fixed order, so the same
// seed and config replay the same generations.
func (g *Garden) AdvanceGeneration(ctx context.Context, env genetics.Environment) (*GenerationReport, error) {
	if g.population == 0 {
		return nil, errors.New("garden: no plants to advance")
	}
	if _, err := g.ExpressAll(env); err != nil {
		return nil, fmt.Errorf("garden: expressing generation %d: %w", g.generation, err)
	}

	// Collect the live population and its phenotypes.
	live := make(map[string]livePlant, g.population)
	candidates := make([]genetics.Candidate, 0, g.population)

	query := g.plantFilter.Query()
	for query.Next() {
		entity := query.Entity()
		plant, genome, expressed := query.Get()
		if !expressed.Valid || genome.G == nil {
			continue
		}
		live[plant.ID] = livePlant{entity: entity, plant: *plant, genotype: genome.G}
		candidates = append(candidates, genetics.Candidate{
			ID:      plant.ID,
			Profile: expressed.Profile,
			Inbred:  genome.G.Inbred(),
		})
	}
	if len(candidates) == 0 {
		return nil, errors.New("garden: no expressed plants to rank")
	}

	ranked := genetics.RankCandidates(g.reg, candidates, g.cfg.Derived.Objectives)

	// Archive every ranked plant; the archive keeps only the best.
	for _, rc := range ranked {
		lp := live[rc.ID]
		g.elites.Consider(EliteEntry{
			ID:          rc.ID,
			Score:       rc.Report.Score,
			Generation:  lp.plant.Generation,
			Inbred:      rc.Inbred,
			Fingerprint: lp.genotype.Fingerprint(),
			Genotype:    lp.genotype.Clone(),
		})
	}

	parents := g.selectParents(ranked, live)
	if len(parents) < 2 {
		return nil, fmt.Errorf("garden: %d breeding parents, need at least 2", len(parents))
	}

	newborns, mutated, inbredBirths, err := g.breedParents(ctx, parents)
	if err != nil {
		return nil, err
	}

	// Replace the population: clear, then carry elites and plant offspring.
	carried := g.cfg.Selection.CarryElites
	if carried > len(ranked) {
		carried = len(ranked)
	}
	g.clearPlants()
	for i := 0; i < carried; i++ {
		lp := live[ranked[i].ID]
		g.addPlant(lp.plant.ID, lp.plant.Generation, lp.plant.ParentA, lp.plant.ParentB, lp.genotype)
	}

	nextGen := g.generation + 1
	for _, nb := range newborns {
		if err := g.store.AddBirth(ctx, pedigree.Record{
			ID:         nb.id,
			ParentA:    nb.parentA,
			ParentB:    nb.parentB,
			Generation: nextGen,
		}); err != nil {
			return nil, fmt.Errorf("garden: recording birth: %w", err)
		}
		g.addPlant(nb.id, nextGen, nb.parentA, nb.parentB, nb.genotype)
	}
	g.generation = nextGen

	return &GenerationReport{
		Generation:   nextGen,
		Evaluated:    ranked,
		Population:   g.population,
		Carried:      carried,
		Newborn:      len(newborns),
		MutatedLoci:  mutated,
		InbredBirths: inbredBirths,
		Diversity:    genetics.Analyze(g.reg, g.Genotypes()),
	}, nil
}

// selectParents takes the top ranked plants as breeding stock, topping up
// from the elite archive when the garden is short.
func (g *Garden) selectParents(ranked []genetics.RankedCandidate, live map[string]livePlant) []parentStock {
	want := g.cfg.Selection.Parents
	count := want
	if count > len(ranked) {
		count = len(ranked)
	}

	parents := make([]parentStock, 0, want)
	chosen := make(map[string]bool, want)
	for _, rc := range ranked[:count] {
		parents = append(parents, parentStock{id: rc.ID, genotype: live[rc.ID].genotype})
		chosen[rc.ID] = true
	}

	// Tournament-sample archived lines to fill the remaining slots.
	added := 0
	for attempts := 0; len(parents) < want && attempts < want*2; attempts++ {
		elite := g.elites.Sample()
		if elite == nil {
			break
		}
		if chosen[elite.ID] {
			continue
		}
		parents = append(parents, parentStock{id: elite.ID, genotype: elite.Genotype})
		chosen[elite.ID] = true
		added++
	}
	if added > 0 {
		slog.Info("elite_stock_topup",
			"generation", g.generation,
			"live_parents", count,
			"archived_added", added,
			"archive_size", g.elites.Len(),
		)
	}
	return parents
}

// breedResult is one offspring queued for planting.
type breedResult struct {
	id       string
	parentA  string
	parentB  string
	genotype *genetics.Genotype
}

// breedParents crosses consecutive parent pairs in rank order, respecting
// the population cap.
func (g *Garden) breedParents(ctx context.Context, parents []parentStock) (newborns []breedResult, mutated, inbredBirths int, err error) {
	related := pedigree.Predicate(ctx, g.store, g.cfg.Inbreeding.PedigreeDepth)
	opts := genetics.BreedOptions{
		RNG:          g.rng,
		MutationRate: g.cfg.Mutation.Rate,
		AllowDeNovo:  g.cfg.Mutation.AllowDeNovo,
		Related:      related,
	}

	carried := g.cfg.Selection.CarryElites
	maxPop := g.cfg.Garden.MaxPopulation
	room := -1
	if maxPop > 0 {
		room = maxPop - carried
		if room < 0 {
			room = 0
		}
	}

outer:
	for i := 0; i+1 < len(parents); i += 2 {
		pa, pb := parents[i], parents[i+1]
		opts.ParentAID, opts.ParentBID = pa.id, pb.id

		results, berr := genetics.BreedBatch(g.reg, pa.genotype, pb.genotype, g.cfg.Selection.OffspringPerPair, opts)
		if berr != nil {
			return nil, 0, 0, fmt.Errorf("garden: crossing %s with %s: %w", pa.id, pb.id, berr)
		}
		for _, res := range results {
			if room >= 0 && len(newborns) >= room {
				break outer
			}
			id, ierr := g.newPlantID()
			if ierr != nil {
				return nil, 0, 0, ierr
			}
			newborns = append(newborns, breedResult{
				id:       id,
				parentA:  res.ParentAID,
				parentB:  res.ParentBID,
				genotype: res.Offspring,
			})
			mutated += res.MutatedLoci
			if res.Inbred {
				inbredBirths++
			}
		}
	}
	return newborns, mutated, inbredBirths, nil
}

// clearPlants removes every plant entity.
func (g *Garden) clearPlants() {
	var toRemove []ecs.Entity

	query := g.plantFilter.Query()
	for query.Next() {
		toRemove = append(toRemove, query.Entity())
	}
	for _, entity := range toRemove {
		g.plantMapper.Remove(entity)
	}
	g.population = 0
}
