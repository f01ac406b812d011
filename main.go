package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/garden"
	"github.com/DevonLowjamski/chimera-genetics/pedigree"
	"github.com/DevonLowjamski/chimera-genetics/persist"
	"github.com/DevonLowjamski/chimera-genetics/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	catalogPath := flag.String("catalog", "", "Path to a gene catalog JSON (empty = embedded catalog)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", 20, "Generations to advance")
	founders := flag.Int("founders", 0, "Founder population size (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config, and elites")
	pedigreeDB := flag.String("pedigree-db", "", "SQLite pedigree database path (empty = in-memory)")
	snapshotPath := flag.String("snapshot", "", "Write a final snapshot to this path")
	resumePath := flag.String("resume", "", "Resume from a snapshot instead of seeding founders")
	logStats := flag.Bool("log-stats", false, "Output per-generation stats via slog even when config disables them")
	quiet := flag.Bool("quiet", false, "Log warnings and errors only")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *quiet {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load the gene catalog and build the registry
	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		slog.Error("failed to load gene catalog", "error", err)
		os.Exit(1)
	}
	reg, err := catalog.Registry()
	if err != nil {
		slog.Error("failed to build gene registry", "error", err)
		os.Exit(1)
	}

	// Pedigree store: SQLite on disk or in-memory
	store, err := openStore(*pedigreeDB)
	if err != nil {
		slog.Error("failed to open pedigree store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	rng := rand.New(rand.NewSource(rngSeed))
	g, err := garden.New(reg, cfg, store, rng)
	if err != nil {
		slog.Error("failed to create garden", "error", err)
		os.Exit(1)
	}
	defer g.Close()

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()

	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Plant the starting population: resume a snapshot or seed founders
	if *resumePath != "" {
		snap, err := persist.ReadSnapshot(*resumePath)
		if err != nil {
			slog.Error("failed to read snapshot", "path", *resumePath, "error", err)
			os.Exit(1)
		}
		if err := snap.Verify(catalog.Digest); err != nil {
			slog.Error("snapshot does not match this catalog", "error", err)
			os.Exit(1)
		}
		if err := persist.Restore(ctx, snap, reg, g, store); err != nil {
			slog.Error("failed to restore snapshot", "error", err)
			os.Exit(1)
		}
		slog.Info("resumed from snapshot",
			"path", *resumePath,
			"generation", g.Generation(),
			"population", g.Population(),
			"recorded_seed", snap.Seed,
		)
	} else {
		count := *founders
		if count == 0 {
			count = cfg.Garden.InitialPopulation
		}
		if err := g.SeedPopulation(ctx, count); err != nil {
			slog.Error("failed to seed founders", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("starting breeding program",
		"seed", rngSeed,
		"generations", *generations,
		"population", g.Population(),
		"genes", reg.Len(),
		"catalog_digest", catalog.Digest,
	)

	detector := telemetry.NewMilestoneDetector(cfg.Telemetry)
	perf := telemetry.NewPerfCollector(10)
	logStatsEnabled := cfg.Telemetry.LogStats || *logStats
	env := cfg.Derived.Environment

	for i := 0; i < *generations; i++ {
		perf.StartGeneration()

		perf.StartPhase(telemetry.PhaseAdvance)
		report, err := g.AdvanceGeneration(ctx, env)
		if err != nil {
			slog.Error("generation advance failed", "generation", g.Generation(), "error", err)
			os.Exit(1)
		}

		perf.StartPhase(telemetry.PhaseStats)
		stats := telemetry.ComputeGenerationStats(report)
		traitRows := telemetry.ComputeTraitStats(report)
		milestones := detector.Check(stats)

		if logStatsEnabled {
			stats.LogStats()
		}
		for _, m := range milestones {
			m.LogMilestone()
		}

		perf.StartPhase(telemetry.PhaseOutput)
		if err := output.WriteGenerationStats(stats); err != nil {
			slog.Error("failed to write generation stats", "error", err)
			os.Exit(1)
		}
		if err := output.WriteTraitStats(traitRows); err != nil {
			slog.Error("failed to write trait stats", "error", err)
			os.Exit(1)
		}
		for _, m := range milestones {
			if err := output.WriteMilestone(m); err != nil {
				slog.Error("failed to write milestone", "error", err)
				os.Exit(1)
			}
		}

		perf.EndGeneration()
		if err := output.WritePerf(perf.Stats(), report.Generation); err != nil {
			slog.Error("failed to write perf stats", "error", err)
			os.Exit(1)
		}
	}

	if err := output.WriteElites(g.Elites()); err != nil {
		slog.Error("failed to write elites", "error", err)
		os.Exit(1)
	}

	if *snapshotPath != "" {
		snap, err := persist.Capture(ctx, g, store, rngSeed, catalog.Digest)
		if err != nil {
			slog.Error("failed to capture snapshot", "error", err)
			os.Exit(1)
		}
		if err := persist.WriteSnapshot(*snapshotPath, snap); err != nil {
			slog.Error("failed to write snapshot", "error", err)
			os.Exit(1)
		}
		slog.Info("snapshot written", "path", *snapshotPath, "plants", len(snap.Plants))
	}

	hits, misses, cacheSize := g.CacheStats()
	diversity := g.Diversity()
	slog.Info("breeding program finished",
		"generation", g.Generation(),
		"population", g.Population(),
		"elites", g.Elites().Len(),
		"diversity", diversity.DiversityScore,
		"heterozygosity", diversity.HeterozygosityIndex,
		"cache_hits", hits,
		"cache_misses", misses,
		"cache_size", cacheSize,
	)
}

// loadCatalog reads a catalog file, or the embedded default when path is
// empty.
func loadCatalog(path string) (*config.Catalog, error) {
	if path == "" {
		return config.DefaultCatalog()
	}
	return config.LoadCatalog(path)
}

// openStore opens the SQLite pedigree store, or an in-memory one when
// path is empty.
func openStore(path string) (pedigree.Store, error) {
	if path == "" {
		return pedigree.NewMemStore(), nil
	}
	return pedigree.OpenSQL(path)
}
