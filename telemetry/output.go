package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/garden"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir            string
	generationFile *os.File
	traitFile      *os.File
	milestoneFile  *os.File
	perfFile       *os.File

	// Track if headers have been written
	generationHeaderWritten bool
	traitHeaderWritten      bool
	milestoneHeaderWritten  bool
	perfHeaderWritten       bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	// Open generations.csv
	generationPath := filepath.Join(dir, "generations.csv")
	f, err := os.Create(generationPath)
	if err != nil {
		return nil, fmt.Errorf("creating generations.csv: %w", err)
	}
	om.generationFile = f

	// Open traits.csv
	traitPath := filepath.Join(dir, "traits.csv")
	f, err = os.Create(traitPath)
	if err != nil {
		om.generationFile.Close()
		return nil, fmt.Errorf("creating traits.csv: %w", err)
	}
	om.traitFile = f

	// Open milestones.csv
	milestonePath := filepath.Join(dir, "milestones.csv")
	f, err = os.Create(milestonePath)
	if err != nil {
		om.generationFile.Close()
		om.traitFile.Close()
		return nil, fmt.Errorf("creating milestones.csv: %w", err)
	}
	om.milestoneFile = f

	// Open perf.csv
	perfPath := filepath.Join(dir, "perf.csv")
	f, err = os.Create(perfPath)
	if err != nil {
		om.generationFile.Close()
		om.traitFile.Close()
		om.milestoneFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteGenerationStats writes a generation stats record to generations.csv.
func (om *OutputManager) WriteGenerationStats(stats GenerationStats) error {
	if om == nil {
		return nil
	}

	records := []GenerationStats{stats}

	if !om.generationHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.generationFile); err != nil {
			return fmt.Errorf("writing generation stats: %w", err)
		}
		om.generationHeaderWritten = true
	} else {
		// Subsequent writes skip headers
		if err := gocsv.MarshalWithoutHeaders(records, om.generationFile); err != nil {
			return fmt.Errorf("writing generation stats: %w", err)
		}
	}

	return nil
}

// WriteTraitStats writes per-trait distribution rows to traits.csv.
func (om *OutputManager) WriteTraitStats(rows []TraitStats) error {
	if om == nil || len(rows) == 0 {
		return nil
	}

	if !om.traitHeaderWritten {
		if err := gocsv.Marshal(rows, om.traitFile); err != nil {
			return fmt.Errorf("writing trait stats: %w", err)
		}
		om.traitHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(rows, om.traitFile); err != nil {
			return fmt.Errorf("writing trait stats: %w", err)
		}
	}

	return nil
}

// WriteMilestone writes a milestone record to milestones.csv.
func (om *OutputManager) WriteMilestone(m Milestone) error {
	if om == nil {
		return nil
	}

	records := []Milestone{m}

	if !om.milestoneHeaderWritten {
		if err := gocsv.Marshal(records, om.milestoneFile); err != nil {
			return fmt.Errorf("writing milestone: %w", err)
		}
		om.milestoneHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.milestoneFile); err != nil {
			return fmt.Errorf("writing milestone: %w", err)
		}
	}

	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, generation int) error {
	if om == nil {
		return nil
	}

	csvRecord := stats.ToCSV(generation)
	records := []PerfStatsCSV{csvRecord}

	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}

	return nil
}

// WriteElites saves the elite archive as JSON.
func (om *OutputManager) WriteElites(archive *garden.EliteArchive) error {
	if om == nil || archive == nil {
		return nil
	}

	elitePath := filepath.Join(om.dir, "elites.json")
	data, err := archive.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling elites: %w", err)
	}

	if err := os.WriteFile(elitePath, data, 0644); err != nil {
		return fmt.Errorf("writing elites.json: %w", err)
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.generationFile != nil {
		if err := om.generationFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.traitFile != nil {
		if err := om.traitFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.milestoneFile != nil {
		if err := om.milestoneFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
