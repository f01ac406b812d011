package config

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

//go:embed catalog_schema.json
var catalogSchemaJSON []byte

//go:embed default_catalog.json
var defaultCatalogJSON []byte

// Catalog is a validated gene catalog plus a content digest. The digest
// identifies the exact catalog a snapshot was produced under, so replays
// can refuse to run against different gene definitions.
type Catalog struct {
	Version int
	Genes   []genetics.GeneDefinition
	Digest  string
}

// catalogDoc mirrors the catalog JSON layout.
type catalogDoc struct {
	Version int       `json:"version"`
	Genes   []geneDoc `json:"genes"`
}

type geneDoc struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Trait     string `json:"trait"`
	Dominance string `json:"dominance"`
	Range     struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"range"`
	Importance          float64     `json:"importance"`
	InbreedingSensitive bool        `json:"inbreeding_sensitive"`
	Alleles             []alleleDoc `json:"alleles"`
}

type alleleDoc struct {
	Symbol       string  `json:"symbol"`
	Contribution float64 `json:"contribution"`
	Rank         int     `json:"rank"`
}

// LoadCatalog reads and validates a gene catalog file. The document is
// checked against the embedded JSON schema before decoding, so structural
// problems surface with schema paths instead of zero-valued genes.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return parseCatalog(raw)
}

// DefaultCatalog returns the embedded gene catalog.
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalogJSON)
}

func parseCatalog(raw []byte) (*Catalog, error) {
	schema, err := jsonschema.CompileString("catalog_schema.json", string(catalogSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compiling catalog schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}

	var parsed catalogDoc
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	catalog := &Catalog{
		Version: parsed.Version,
		Genes:   make([]genetics.GeneDefinition, 0, len(parsed.Genes)),
		Digest:  sha256Hex(raw),
	}
	for _, gene := range parsed.Genes {
		def, err := gene.toDefinition()
		if err != nil {
			return nil, fmt.Errorf("catalog gene %q: %w", gene.Symbol, err)
		}
		catalog.Genes = append(catalog.Genes, def)
	}
	return catalog, nil
}

// toDefinition maps the schema-validated document onto the engine type.
// The name enums re-parse here; the schema already constrains them, so a
// failure means schema and engine drifted apart.
func (g geneDoc) toDefinition() (genetics.GeneDefinition, error) {
	trait, err := genetics.ParseTraitType(g.Trait)
	if err != nil {
		return genetics.GeneDefinition{}, err
	}
	category, err := genetics.ParseGeneCategory(g.Category)
	if err != nil {
		return genetics.GeneDefinition{}, err
	}
	dominance, err := genetics.ParseDominanceRule(g.Dominance)
	if err != nil {
		return genetics.GeneDefinition{}, err
	}

	def := genetics.GeneDefinition{
		Symbol:              genetics.Locus(g.Symbol),
		Name:                g.Name,
		Category:            category,
		Trait:               trait,
		Dominance:           dominance,
		Min:                 g.Range.Min,
		Max:                 g.Range.Max,
		Importance:          g.Importance,
		InbreedingSensitive: g.InbreedingSensitive,
		Alleles:             make([]genetics.Allele, 0, len(g.Alleles)),
	}
	for _, a := range g.Alleles {
		def.Alleles = append(def.Alleles, genetics.Allele{
			Symbol:       a.Symbol,
			Contribution: a.Contribution,
			Rank:         a.Rank,
		})
	}
	return def, nil
}

// Registry loads the catalog's genes into an engine registry, which runs
// the semantic checks the schema cannot (duplicate symbols, contributions
// outside range, duplicate backing traits).
func (c *Catalog) Registry() (*genetics.Registry, error) {
	reg, err := genetics.LoadRegistry(c.Genes)
	if err != nil {
		return nil, fmt.Errorf("catalog registry: %w", err)
	}
	return reg, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
