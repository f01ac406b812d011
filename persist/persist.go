// Package persist captures and restores complete breeding-program state:
// the live population, its pedigree, and the seed that reproduces the run.
// Snapshots are zstd-compressed JSON.
package persist

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/DevonLowjamski/chimera-genetics/garden"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
	"github.com/DevonLowjamski/chimera-genetics/pedigree"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete program state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`

	// Generation the garden stood at when captured.
	Generation int `json:"generation"`

	// CatalogDigest pins the gene catalog the genotypes were built against.
	CatalogDigest string `json:"catalog_digest"`

	Plants   []PlantState      `json:"plants"`
	Pedigree []pedigree.Record `json:"pedigree"`
}

// PlantState holds one plant's complete state.
type PlantState struct {
	ID         string          `json:"id"`
	Generation int             `json:"generation"`
	ParentA    string          `json:"parent_a,omitempty"`
	ParentB    string          `json:"parent_b,omitempty"`
	Genotype   json.RawMessage `json:"genotype"`
}

// Capture assembles a snapshot of the garden and its pedigree store.
func Capture(ctx context.Context, g *garden.Garden, store pedigree.Store, seed int64, catalogDigest string) (*Snapshot, error) {
	plants := g.Plants()
	states := make([]PlantState, len(plants))
	for i, p := range plants {
		raw, err := json.Marshal(p.Genotype)
		if err != nil {
			return nil, fmt.Errorf("marshal genotype of %s: %w", p.ID, err)
		}
		states[i] = PlantState{
			ID:         p.ID,
			Generation: p.Generation,
			ParentA:    p.ParentA,
			ParentB:    p.ParentB,
			Genotype:   raw,
		}
	}

	records, err := store.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pedigree: %w", err)
	}

	return &Snapshot{
		Version:       SnapshotVersion,
		Seed:          seed,
		Generation:    g.Generation(),
		CatalogDigest: catalogDigest,
		Plants:        states,
		Pedigree:      records,
	}, nil
}

// Verify checks that a loaded snapshot can be restored by this build
// against the given catalog digest.
func (s *Snapshot) Verify(catalogDigest string) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, this build reads %d", s.Version, SnapshotVersion)
	}
	if catalogDigest != "" && s.CatalogDigest != "" && s.CatalogDigest != catalogDigest {
		return fmt.Errorf("snapshot was taken against catalog %.12s, loaded catalog is %.12s", s.CatalogDigest, catalogDigest)
	}
	return nil
}

// WriteSnapshot writes a compressed snapshot to disk.
func WriteSnapshot(path string, snap *Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	if err := json.NewEncoder(bw).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reads a compressed snapshot from disk.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(bufio.NewReaderSize(dec, 64*1024)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Restore rebuilds an empty garden and pedigree store from a snapshot.
// Genotypes are parsed against reg, so a snapshot only restores onto the
// catalog it was captured from.
func Restore(ctx context.Context, snap *Snapshot, reg *genetics.Registry, g *garden.Garden, store pedigree.Store) error {
	views := make([]garden.PlantView, len(snap.Plants))
	for i, p := range snap.Plants {
		genotype, err := genetics.ParseGenotype(reg, p.Genotype)
		if err != nil {
			return fmt.Errorf("restore plant %s: %w", p.ID, err)
		}
		views[i] = garden.PlantView{
			ID:         p.ID,
			Generation: p.Generation,
			ParentA:    p.ParentA,
			ParentB:    p.ParentB,
			Genotype:   genotype,
		}
	}

	for _, rec := range snap.Pedigree {
		if err := store.AddBirth(ctx, rec); err != nil {
			return fmt.Errorf("replay pedigree record %s: %w", rec.ID, err)
		}
	}

	return g.Restore(snap.Generation, views)
}
