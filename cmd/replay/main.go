// Package main provides a determinism checker for breeding program runs.
//
// In double-run mode it executes the same seeded program twice and compares
// the populations generation by generation. With -snapshot it re-runs the
// recorded seed from founders and checks that the final population matches
// the captured one.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/garden"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
	"github.com/DevonLowjamski/chimera-genetics/pedigree"
	"github.com/DevonLowjamski/chimera-genetics/persist"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	catalogPath := flag.String("catalog", "", "Gene catalog JSON (empty = embedded catalog)")
	seed := flag.Int64("seed", 42, "RNG seed to replay")
	generations := flag.Int("generations", 10, "Generations per run")
	founders := flag.Int("founders", 0, "Founder population size (0 = use config)")
	snapshotPath := flag.String("snapshot", "", "Verify a recorded snapshot instead of a double run")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		log.Fatalf("failed to load gene catalog: %v", err)
	}
	reg, err := catalog.Registry()
	if err != nil {
		log.Fatalf("failed to build gene registry: %v", err)
	}

	count := *founders
	if count == 0 {
		count = cfg.Garden.InitialPopulation
	}

	if *snapshotPath != "" {
		verifySnapshot(reg, cfg, catalog.Digest, *snapshotPath, count)
		return
	}

	doubleRun(reg, cfg, *seed, count, *generations)
}

// doubleRun executes the same seeded program twice and compares the two
// populations after every generation.
func doubleRun(reg *genetics.Registry, cfg *config.Config, seed int64, founders, generations int) {
	fmt.Printf("Running twice with seed=%d, founders=%d, generations=%d\n", seed, founders, generations)

	first, err := runProgram(reg, cfg, seed, founders, generations)
	if err != nil {
		log.Fatalf("first run failed: %v", err)
	}
	second, err := runProgram(reg, cfg, seed, founders, generations)
	if err != nil {
		log.Fatalf("second run failed: %v", err)
	}

	for i := range first.digests {
		if first.digests[i] != second.digests[i] {
			fmt.Printf("DIVERGED at generation %d:\n  first:  %s\n  second: %s\n",
				i+1, first.digests[i], second.digests[i])
			os.Exit(1)
		}
	}

	if n := reportMismatches(first.plants, second.plants); n > 0 {
		fmt.Printf("DIVERGED: %d plant mismatches in the final population\n", n)
		os.Exit(1)
	}

	fmt.Printf("Deterministic: %d generations, %d plants, final digest %.16s\n",
		generations, len(first.plants), first.digests[len(first.digests)-1])
}

// verifySnapshot replays the snapshot's recorded seed from founders and
// compares the resulting population against the captured plants. The run
// must use the same config the snapshot was produced with.
func verifySnapshot(reg *genetics.Registry, cfg *config.Config, catalogDigest, path string, founders int) {
	snap, err := persist.ReadSnapshot(path)
	if err != nil {
		log.Fatalf("failed to read snapshot: %v", err)
	}
	if err := snap.Verify(catalogDigest); err != nil {
		log.Fatalf("snapshot does not match this catalog: %v", err)
	}

	fmt.Printf("Replaying snapshot %s: seed=%d, generations=%d, plants=%d\n",
		path, snap.Seed, snap.Generation, len(snap.Plants))

	trace, err := runProgram(reg, cfg, snap.Seed, founders, snap.Generation)
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	want := make([]garden.PlantView, 0, len(snap.Plants))
	for _, p := range snap.Plants {
		genotype, err := genetics.ParseGenotype(reg, p.Genotype)
		if err != nil {
			log.Fatalf("snapshot plant %s: %v", p.ID, err)
		}
		want = append(want, garden.PlantView{
			ID:         p.ID,
			Generation: p.Generation,
			ParentA:    p.ParentA,
			ParentB:    p.ParentB,
			Genotype:   genotype,
		})
	}

	if n := reportMismatches(want, trace.plants); n > 0 {
		fmt.Printf("DIVERGED: %d plant mismatches against the snapshot\n", n)
		os.Exit(1)
	}

	fmt.Printf("Reproducible: replay matches all %d captured plants\n", len(want))
}

// runTrace holds one aggregate population digest per generation plus the
// final population.
type runTrace struct {
	digests []string
	plants  []garden.PlantView
}

// runProgram executes one headless breeding program run.
func runProgram(reg *genetics.Registry, cfg *config.Config, seed int64, founders, generations int) (*runTrace, error) {
	ctx := context.Background()
	store := pedigree.NewMemStore()
	defer store.Close()

	rng := rand.New(rand.NewSource(seed))
	g, err := garden.New(reg, cfg, store, rng)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	if err := g.SeedPopulation(ctx, founders); err != nil {
		return nil, err
	}

	trace := &runTrace{digests: make([]string, 0, generations)}
	for i := 0; i < generations; i++ {
		if _, err := g.AdvanceGeneration(ctx, cfg.Derived.Environment); err != nil {
			return nil, err
		}
		trace.digests = append(trace.digests, populationDigest(g.Plants()))
	}
	trace.plants = g.Plants()
	return trace, nil
}

// populationDigest hashes plant IDs and genotype fingerprints into one
// aggregate digest. Plants arrive sorted by ID, so equal populations
// produce equal digests.
func populationDigest(plants []garden.PlantView) string {
	h := sha256.New()
	for _, p := range plants {
		fmt.Fprintf(h, "%s:%s\n", p.ID, p.Genotype.Fingerprint())
	}
	return hex.EncodeToString(h.Sum(nil))
}

// reportMismatches prints plant-level differences between two populations
// and returns how many it found.
func reportMismatches(want, got []garden.PlantView) int {
	if len(want) != len(got) {
		fmt.Printf("  population size: want %d, got %d\n", len(want), len(got))
		return 1
	}

	mismatches := 0
	for i := range want {
		switch {
		case want[i].ID != got[i].ID:
			mismatches++
			if mismatches <= 5 {
				fmt.Printf("  plant %d: ID want %s, got %s\n", i, want[i].ID, got[i].ID)
			}
		case want[i].Genotype.Fingerprint() != got[i].Genotype.Fingerprint():
			mismatches++
			if mismatches <= 5 {
				fmt.Printf("  plant %s: genotype fingerprint mismatch\n", want[i].ID)
			}
		}
	}
	if mismatches > 5 {
		fmt.Printf("  ... and %d more\n", mismatches-5)
	}
	return mismatches
}

// loadCatalog reads a catalog file, or the embedded default when path is
// empty.
func loadCatalog(path string) (*config.Catalog, error) {
	if path == "" {
		return config.DefaultCatalog()
	}
	return config.LoadCatalog(path)
}
