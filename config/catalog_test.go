package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error: %v", err)
	}
	if catalog.Version != 1 {
		t.Errorf("Version = %d, want 1", catalog.Version)
	}
	if len(catalog.Genes) != 8 {
		t.Fatalf("len(Genes) = %d, want 8", len(catalog.Genes))
	}
	if len(catalog.Digest) != 64 {
		t.Errorf("Digest length = %d, want 64 hex chars", len(catalog.Digest))
	}

	reg, err := catalog.Registry()
	if err != nil {
		t.Fatalf("Registry() error: %v", err)
	}
	if reg.Len() != 8 {
		t.Errorf("registry Len() = %d, want 8", reg.Len())
	}

	// Every catalog trait resolves through the registry's trait index.
	for _, trait := range []genetics.TraitType{
		genetics.Height, genetics.Yield, genetics.GrowthRate,
		genetics.DiseaseResistance, genetics.PhotosyntheticEfficiency,
		genetics.FlowerColor, genetics.AromaIntensity, genetics.RootVigor,
	} {
		if _, err := reg.ByTrait(trait); err != nil {
			t.Errorf("ByTrait(%v) error: %v", trait, err)
		}
	}

	def, err := reg.Lookup("YLD1")
	if err != nil {
		t.Fatalf("Lookup(YLD1) error: %v", err)
	}
	if def.Dominance != genetics.DominanceIncomplete {
		t.Errorf("YLD1 dominance = %v, want incomplete", def.Dominance)
	}
	if !def.InbreedingSensitive {
		t.Error("YLD1 InbreedingSensitive = false, want true")
	}
	if def.Importance != 2.0 {
		t.Errorf("YLD1 Importance = %v, want 2.0", def.Importance)
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, defaultCatalogJSON, 0644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog(%q) error: %v", path, err)
	}
	embedded, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error: %v", err)
	}
	if fromFile.Digest != embedded.Digest {
		t.Errorf("digest mismatch: file %s, embedded %s", fromFile.Digest, embedded.Digest)
	}
	if len(fromFile.Genes) != len(embedded.Genes) {
		t.Errorf("gene count mismatch: file %d, embedded %d", len(fromFile.Genes), len(embedded.Genes))
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadCatalog(missing) succeeded, want error")
	}
}

func TestCatalogSchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "empty gene list",
			doc:  `{"version": 1, "genes": []}`,
		},
		{
			name: "missing symbol",
			doc: `{"version": 1, "genes": [{
				"name": "Stature", "category": "Morphological", "trait": "Height",
				"dominance": "complete", "range": {"min": 0, "max": 1},
				"alleles": [{"symbol": "a", "contribution": 0.5, "rank": 1}]}]}`,
		},
		{
			name: "unknown category",
			doc: `{"version": 1, "genes": [{
				"symbol": "X1", "name": "X", "category": "Cosmic", "trait": "Height",
				"dominance": "complete", "range": {"min": 0, "max": 1},
				"alleles": [{"symbol": "a", "contribution": 0.5, "rank": 1}]}]}`,
		},
		{
			name: "unknown dominance",
			doc: `{"version": 1, "genes": [{
				"symbol": "X1", "name": "X", "category": "Morphological", "trait": "Height",
				"dominance": "overdominant", "range": {"min": 0, "max": 1},
				"alleles": [{"symbol": "a", "contribution": 0.5, "rank": 1}]}]}`,
		},
		{
			name: "negative importance",
			doc: `{"version": 1, "genes": [{
				"symbol": "X1", "name": "X", "category": "Morphological", "trait": "Height",
				"dominance": "complete", "range": {"min": 0, "max": 1}, "importance": -1,
				"alleles": [{"symbol": "a", "contribution": 0.5, "rank": 1}]}]}`,
		},
		{
			name: "stray gene property",
			doc: `{"version": 1, "genes": [{
				"symbol": "X1", "name": "X", "category": "Morphological", "trait": "Height",
				"dominance": "complete", "range": {"min": 0, "max": 1}, "ploidy": 4,
				"alleles": [{"symbol": "a", "contribution": 0.5, "rank": 1}]}]}`,
		},
		{
			name: "missing version",
			doc: `{"genes": [{
				"symbol": "X1", "name": "X", "category": "Morphological", "trait": "Height",
				"dominance": "complete", "range": {"min": 0, "max": 1},
				"alleles": [{"symbol": "a", "contribution": 0.5, "rank": 1}]}]}`,
		},
		{
			name: "not json",
			doc:  `mutation: 0.02`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.json")
			if err := os.WriteFile(path, []byte(tt.doc), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadCatalog(path); err == nil {
				t.Error("LoadCatalog() succeeded, want error")
			}
		})
	}
}

func TestCatalogDigestTracksContent(t *testing.T) {
	base := `{"version": 1, "genes": [{
		"symbol": "X1", "name": "X", "category": "Morphological", "trait": "Height",
		"dominance": "complete", "range": {"min": 0, "max": 10},
		"alleles": [{"symbol": "a", "contribution": 5, "rank": 1}]}]}`
	edited := `{"version": 1, "genes": [{
		"symbol": "X1", "name": "X", "category": "Morphological", "trait": "Height",
		"dominance": "complete", "range": {"min": 0, "max": 10},
		"alleles": [{"symbol": "a", "contribution": 6, "rank": 1}]}]}`

	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.json")
	editedPath := filepath.Join(dir, "edited.json")
	if err := os.WriteFile(basePath, []byte(base), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(editedPath, []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := LoadCatalog(basePath)
	if err != nil {
		t.Fatalf("LoadCatalog(base) error: %v", err)
	}
	again, err := LoadCatalog(basePath)
	if err != nil {
		t.Fatalf("LoadCatalog(base) error: %v", err)
	}
	changed, err := LoadCatalog(editedPath)
	if err != nil {
		t.Fatalf("LoadCatalog(edited) error: %v", err)
	}

	if first.Digest != again.Digest {
		t.Error("same bytes produced different digests")
	}
	if first.Digest == changed.Digest {
		t.Error("different catalogs produced the same digest")
	}
}
