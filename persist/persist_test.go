package persist

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/DevonLowjamski/chimera-genetics/config"
	"github.com/DevonLowjamski/chimera-genetics/garden"
	"github.com/DevonLowjamski/chimera-genetics/genetics"
	"github.com/DevonLowjamski/chimera-genetics/pedigree"
)

type testFixture struct {
	reg    *genetics.Registry
	cfg    *config.Config
	digest string
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	catalog, err := config.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	reg, err := catalog.Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Garden.InitialPopulation = 8
	cfg.Garden.MaxPopulation = 16
	cfg.Selection.Parents = 4
	cfg.Selection.OffspringPerPair = 3
	cfg.Selection.CarryElites = 2
	return &testFixture{reg: reg, cfg: cfg, digest: catalog.Digest}
}

func (f *testFixture) newGarden(t *testing.T, seed int64) (*garden.Garden, *pedigree.MemStore) {
	t.Helper()
	store := pedigree.NewMemStore()
	g, err := garden.New(f.reg, f.cfg, store, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("garden.New: %v", err)
	}
	t.Cleanup(g.Close)
	return g, store
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t)

	g, store := fixture.newGarden(t, 42)
	if err := g.SeedPopulation(ctx, 8); err != nil {
		t.Fatalf("SeedPopulation: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := g.AdvanceGeneration(ctx, fixture.cfg.Derived.Environment); err != nil {
			t.Fatalf("AdvanceGeneration %d: %v", i, err)
		}
	}

	snap, err := Capture(ctx, g, store, 42, fixture.digest)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if snap.Version != SnapshotVersion || snap.Seed != 42 || snap.Generation != 2 {
		t.Errorf("snapshot header = %d/%d/%d, want %d/42/2", snap.Version, snap.Seed, snap.Generation, SnapshotVersion)
	}
	if len(snap.Plants) != g.Population() {
		t.Errorf("snapshot holds %d plants, garden has %d", len(snap.Plants), g.Population())
	}

	path := filepath.Join(t.TempDir(), "run.snap.zst")
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	loaded, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if err := loaded.Verify(fixture.digest); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	restoredGarden, restoredStore := fixture.newGarden(t, 99)
	if err := Restore(ctx, loaded, fixture.reg, restoredGarden, restoredStore); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restoredGarden.Generation() != g.Generation() {
		t.Errorf("restored generation %d, want %d", restoredGarden.Generation(), g.Generation())
	}
	if restoredGarden.Population() != g.Population() {
		t.Errorf("restored population %d, want %d", restoredGarden.Population(), g.Population())
	}

	original, restored := g.Plants(), restoredGarden.Plants()
	for i := range original {
		if restored[i].ID != original[i].ID {
			t.Fatalf("plant %d: ID %s, want %s", i, restored[i].ID, original[i].ID)
		}
		if restored[i].ParentA != original[i].ParentA || restored[i].ParentB != original[i].ParentB {
			t.Errorf("plant %s: parentage changed", original[i].ID)
		}
		if restored[i].Genotype.Fingerprint() != original[i].Genotype.Fingerprint() {
			t.Errorf("plant %s: genotype changed across the round trip", original[i].ID)
		}
	}

	// The pedigree replays completely, relatedness checks included.
	originalRecords, err := store.Records(ctx)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	restoredRecords, err := restoredStore.Records(ctx)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(restoredRecords) != len(originalRecords) {
		t.Fatalf("restored %d pedigree records, want %d", len(restoredRecords), len(originalRecords))
	}
	for _, rec := range originalRecords {
		got, ok, err := restoredStore.Parents(ctx, rec.ID)
		if err != nil || !ok {
			t.Fatalf("restored store missing record %s: %v", rec.ID, err)
		}
		if got != rec {
			t.Errorf("record %s = %+v, want %+v", rec.ID, got, rec)
		}
	}
}

func TestSnapshotVerify(t *testing.T) {
	tests := []struct {
		name    string
		snap    Snapshot
		digest  string
		wantErr bool
	}{
		{"matching digest", Snapshot{Version: SnapshotVersion, CatalogDigest: "abc"}, "abc", false},
		{"empty snapshot digest", Snapshot{Version: SnapshotVersion}, "abc", false},
		{"empty loaded digest", Snapshot{Version: SnapshotVersion, CatalogDigest: "abc"}, "", false},
		{"digest mismatch", Snapshot{Version: SnapshotVersion, CatalogDigest: "abc"}, "def", true},
		{"future version", Snapshot{Version: SnapshotVersion + 1, CatalogDigest: "abc"}, "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Verify(tt.digest)
			if (err != nil) != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "absent.snap.zst")); err == nil {
		t.Error("expected error for a missing snapshot")
	}
}

func TestSnapshotFileIsCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.snap.zst")
	snap := &Snapshot{Version: SnapshotVersion, Seed: 7}
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	magic := []byte{0x28, 0xb5, 0x2f, 0xfd}
	if len(raw) < 4 || !bytes.Equal(raw[:4], magic) {
		t.Error("snapshot file does not start with the zstd frame magic")
	}
}
