// Package main provides a plant inspector for captured breeding program
// snapshots. It prints one plant's full state: genotype, expressed
// phenotype, objective breakdown, and ancestry.
//
// Usage: inspect -snapshot run.snap.zst [-plant plant-0007]
package main

import (
	"flag"
	"fmt"
	"log"

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
	snapshotPath := flag.String("snapshot", "", "Snapshot file to inspect (required)")
	plantID := flag.String("plant", "", "Plant ID to inspect (empty = best by objective score)")
	depth := flag.Int("depth", 0, "Ancestry depth to print (0 = use config pedigree depth)")
	flag.Parse()

	if *snapshotPath == "" {
		log.Fatal("--snapshot is required")
	}

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

	snap, err := persist.ReadSnapshot(*snapshotPath)
	if err != nil {
		log.Fatalf("failed to read snapshot: %v", err)
	}
	if err := snap.Verify(catalog.Digest); err != nil {
		log.Fatalf("snapshot does not match this catalog: %v", err)
	}

	// Parse every genotype and score the whole population, so the target
	// plant gets a rank among its generation
	genotypes := make(map[string]*genetics.Genotype, len(snap.Plants))
	states := make(map[string]persist.PlantState, len(snap.Plants))
	candidates := make([]genetics.Candidate, 0, len(snap.Plants))

	opts := genetics.ExpressOptions{
		Modifier:          garden.NewEnvironmentModifier(reg, cfg),
		InbreedingPenalty: cfg.Inbreeding.Penalty,
	}
	env := cfg.Derived.Environment

	for _, p := range snap.Plants {
		genotype, err := genetics.ParseGenotype(reg, p.Genotype)
		if err != nil {
			log.Fatalf("snapshot plant %s: %v", p.ID, err)
		}
		profile, err := genetics.Express(reg, genotype, env, opts)
		if err != nil {
			log.Fatalf("expressing plant %s: %v", p.ID, err)
		}
		genotypes[p.ID] = genotype
		states[p.ID] = p
		candidates = append(candidates, genetics.Candidate{
			ID:      p.ID,
			Profile: profile,
			Inbred:  genotype.Inbred(),
		})
	}
	ranked := genetics.RankCandidates(reg, candidates, cfg.Derived.Objectives)
	if len(ranked) == 0 {
		log.Fatal("snapshot holds no plants")
	}

	// Pick the target: named plant, or the best-scoring one
	target := ranked[0]
	rank := 1
	if *plantID != "" {
		found := false
		for i, rc := range ranked {
			if rc.ID == *plantID {
				target, rank, found = rc, i+1, true
				break
			}
		}
		if !found {
			log.Fatalf("plant %s not in snapshot", *plantID)
		}
	}

	ancestryDepth := *depth
	if ancestryDepth == 0 {
		ancestryDepth = cfg.Inbreeding.PedigreeDepth
	}

	state := states[target.ID]
	genotype := genotypes[target.ID]

	printHeader(state, genotype, rank, len(ranked))
	printGenotype(reg, genotype)
	printExpression(reg, target.Profile, env)
	printObjectives(target.Report)
	printAncestry(snap.Pedigree, target.ID, ancestryDepth)
}

func printHeader(state persist.PlantState, genotype *genetics.Genotype, rank, population int) {
	fmt.Printf("Plant %s  (generation %d, rank %d of %d)\n", state.ID, state.Generation, rank, population)
	if state.ParentA == "" && state.ParentB == "" {
		fmt.Printf("  parents: none (founder)\n")
	} else {
		fmt.Printf("  parents: %s x %s\n", state.ParentA, state.ParentB)
	}
	inbred := "no"
	if genotype.Inbred() {
		inbred = "yes"
	}
	fmt.Printf("  inbred:  %s\n", inbred)
}

func printGenotype(reg *genetics.Registry, genotype *genetics.Genotype) {
	fmt.Printf("\nGENOTYPE (%d loci)\n", genotype.Len())
	fmt.Printf("  %-6s %-26s %-8s %-13s %s\n", "LOCUS", "GENE", "ALLELES", "ZYGOSITY", "DOMINANCE")
	for _, locus := range genotype.Loci() {
		def, err := reg.Lookup(locus)
		if err != nil {
			continue
		}
		pair, _ := genotype.AllelesAt(locus)
		zygosity, _ := genotype.ZygosityAt(locus)
		symbols := pair.Symbols()
		fmt.Printf("  %-6s %-26s %-8s %-13s %s\n",
			locus, def.Name, symbols[0]+"/"+symbols[1], zygosity, def.Dominance)
	}
}

func printExpression(reg *genetics.Registry, profile genetics.PhenotypeProfile, env genetics.Environment) {
	fmt.Printf("\nEXPRESSION @ temperature=%.1f humidity=%.2f light=%.2f co2=%.0f nutrients=%.2f\n",
		env.Temperature, env.Humidity, env.Light, env.CO2, env.Nutrients)
	fmt.Printf("  %-26s %-10s %s\n", "TRAIT", "VALUE", "RANGE")
	for _, trait := range profile.Traits() {
		value, _ := profile.Value(trait)
		line := fmt.Sprintf("  %-26s %-10.3f", trait.DisplayName(), value)
		if def, err := reg.ByTrait(trait); err == nil {
			line += fmt.Sprintf(" [%.2f, %.2f]", def.Min, def.Max)
		}
		if raw, ok := profile.Codominant[trait]; ok {
			line += fmt.Sprintf("  (codominant: %.3f / %.3f)", raw[0], raw[1])
		}
		fmt.Println(line)
	}
}

func printObjectives(report genetics.ScoreReport) {
	if report.Undefined {
		fmt.Printf("\nOBJECTIVES (undefined: goal has no weight)\n")
		return
	}
	fmt.Printf("\nOBJECTIVES (score %.4f)\n", report.Score)
	fmt.Printf("  %-26s %-9s %-9s %-10s %s\n", "TRAIT", "TARGET", "ACTUAL", "CLOSENESS", "WEIGHTED")
	for _, obj := range report.Objectives {
		actual := fmt.Sprintf("%.3f", obj.Actual)
		if obj.TraitMissing {
			actual = "missing"
		}
		fmt.Printf("  %-26s %-9.3f %-9s %-10.4f %.4f\n",
			obj.Objective.TargetTrait.DisplayName(), obj.Objective.TargetValue,
			actual, obj.Closeness, obj.Weighted)
	}
}

// printAncestry walks the captured pedigree records up from the target,
// printing one indented line per ancestor.
func printAncestry(records []pedigree.Record, id string, depth int) {
	index := make(map[string]pedigree.Record, len(records))
	for _, rec := range records {
		index[rec.ID] = rec
	}

	fmt.Printf("\nANCESTRY (depth %d)\n", depth)
	printLineage(index, id, "", "", depth)
}

func printLineage(index map[string]pedigree.Record, id, indent, label string, depth int) {
	rec, ok := index[id]
	if !ok {
		fmt.Printf("  %s%s%s (no record)\n", indent, label, id)
		return
	}
	fmt.Printf("  %s%s%s (gen %d)\n", indent, label, id, rec.Generation)
	if depth == 0 || (rec.ParentA == "" && rec.ParentB == "") {
		return
	}
	printLineage(index, rec.ParentA, indent+"  ", "A: ", depth-1)
	printLineage(index, rec.ParentB, indent+"  ", "B: ", depth-1)
}

// loadCatalog reads a catalog file, or the embedded default when path is
// empty.
func loadCatalog(path string) (*config.Catalog, error) {
	if path == "" {
		return config.DefaultCatalog()
	}
	return config.LoadCatalog(path)
}
