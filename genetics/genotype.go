package genetics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Zygosity describes the allele pair at a single locus.
type Zygosity uint8

const (
	Homozygous Zygosity = iota
	Heterozygous
)

// String returns the zygosity name.
func (z Zygosity) String() string {
	if z == Heterozygous {
		return "heterozygous"
	}
	return "homozygous"
}

// AllelePair is the ordered diploid pair at one locus: index 0 is the
// maternal copy, index 1 the paternal. Order never affects expression.
type AllelePair [2]Allele

// Heterozygous reports whether the two alleles differ.
func (p AllelePair) Heterozygous() bool {
	return p[0].Symbol != p[1].Symbol
}

// Symbols returns the pair's allele symbols in maternal, paternal order.
func (p AllelePair) Symbols() [2]string {
	return [2]string{p[0].Symbol, p[1].Symbol}
}

// Genotype is one individual's full allele-pair assignment across every
// registry locus. Genotypes are immutable once constructed; breeding and
// mutation only ever produce new instances.
type Genotype struct {
	loci   []Locus
	pairs  []AllelePair
	index  map[Locus]int
	inbred bool
}

// NewGenotype builds a genotype from allele-symbol assignments, one
// [maternal, paternal] pair per locus. The assignment must cover every
// registry locus with alleles the registry knows; anything else is a
// ValidationError and no genotype is created.
func NewGenotype(reg *Registry, assignment map[Locus][2]string) (*Genotype, error) {
	if reg == nil {
		return nil, errors.New("new genotype: nil registry")
	}

	for locus := range assignment {
		if _, err := reg.Lookup(locus); err != nil {
			return nil, &ValidationError{Code: ValidationUnknownLocus, Locus: locus}
		}
	}

	loci := reg.Loci()
	pairs := make([]AllelePair, len(loci))
	for i, locus := range loci {
		symbols, ok := assignment[locus]
		if !ok {
			return nil, &ValidationError{Code: ValidationMissingLocus, Locus: locus}
		}
		def, err := reg.Lookup(locus)
		if err != nil {
			return nil, &ValidationError{Code: ValidationUnknownLocus, Locus: locus}
		}
		var pair AllelePair
		for slot, symbol := range symbols {
			allele, ok := def.Allele(symbol)
			if !ok {
				return nil, &ValidationError{Code: ValidationUnknownAllele, Locus: locus, Detail: symbol}
			}
			pair[slot] = allele
		}
		pairs[i] = pair
	}

	return newGenotype(loci, pairs, false), nil
}

// newGenotype assumes loci are sorted and pairs are registry-valid.
func newGenotype(loci []Locus, pairs []AllelePair, inbred bool) *Genotype {
	index := make(map[Locus]int, len(loci))
	for i, locus := range loci {
		index[locus] = i
	}
	return &Genotype{loci: loci, pairs: pairs, index: index, inbred: inbred}
}

// AllelesAt returns the pair at a locus.
func (g *Genotype) AllelesAt(locus Locus) (AllelePair, bool) {
	i, ok := g.index[locus]
	if !ok {
		return AllelePair{}, false
	}
	return g.pairs[i], true
}

// ZygosityAt reports whether the pair at a locus is homo- or heterozygous.
func (g *Genotype) ZygosityAt(locus Locus) (Zygosity, bool) {
	pair, ok := g.AllelesAt(locus)
	if !ok {
		return Homozygous, false
	}
	if pair.Heterozygous() {
		return Heterozygous, true
	}
	return Homozygous, true
}

// Loci returns the genotype's locus symbols in sorted order.
func (g *Genotype) Loci() []Locus {
	return append([]Locus(nil), g.loci...)
}

// Len returns the number of loci.
func (g *Genotype) Len() int {
	return len(g.loci)
}

// Inbred reports whether breeding flagged this genotype's parents as
// related. The tag only matters at expression time, for genes marked
// inbreeding-sensitive.
func (g *Genotype) Inbred() bool {
	return g.inbred
}

// Clone returns a deep copy sharing no storage with the original.
func (g *Genotype) Clone() *Genotype {
	loci := append([]Locus(nil), g.loci...)
	pairs := append([]AllelePair(nil), g.pairs...)
	return newGenotype(loci, pairs, g.inbred)
}

// Equal reports whether two genotypes carry identical allele symbols in
// identical pair order at every locus, with the same inbred tag.
func (g *Genotype) Equal(o *Genotype) bool {
	if o == nil || len(g.loci) != len(o.loci) || g.inbred != o.inbred {
		return false
	}
	for i, locus := range g.loci {
		if o.loci[i] != locus {
			return false
		}
		if g.pairs[i].Symbols() != o.pairs[i].Symbols() {
			return false
		}
	}
	return true
}

// genotypeJSON is the stable serialized layout: locus symbol to
// [maternal, paternal] allele symbols, plus the inbred tag.
type genotypeJSON struct {
	Loci   map[string][2]string `json:"loci"`
	Inbred bool                 `json:"inbred,omitempty"`
}

// MarshalJSON serializes the genotype as allele symbols keyed by locus.
// Restore with ParseGenotype, which revalidates against the registry.
func (g *Genotype) MarshalJSON() ([]byte, error) {
	doc := genotypeJSON{Loci: make(map[string][2]string, len(g.loci)), Inbred: g.inbred}
	for i, locus := range g.loci {
		doc.Loci[string(locus)] = g.pairs[i].Symbols()
	}
	return json.Marshal(doc)
}

// ParseGenotype restores a serialized genotype against a registry. The
// result is identical to the genotype that was serialized: same symbols,
// same pair order, same inbred tag.
func ParseGenotype(reg *Registry, data []byte) (*Genotype, error) {
	var doc genotypeJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse genotype: %w", err)
	}
	assignment := make(map[Locus][2]string, len(doc.Loci))
	for locus, symbols := range doc.Loci {
		assignment[Locus(locus)] = symbols
	}
	g, err := NewGenotype(reg, assignment)
	if err != nil {
		return nil, err
	}
	g.inbred = doc.Inbred
	return g, nil
}

// Fingerprint returns a sha256 hex digest of the serialized form.
// encoding/json sorts map keys, so the digest is canonical: equal
// genotypes always produce equal fingerprints.
func (g *Genotype) Fingerprint() string {
	data, err := g.MarshalJSON()
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
