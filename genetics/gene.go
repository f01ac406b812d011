// Package genetics implements the heritable-trait model for cultivated
// plants: gene definitions, diploid genotypes, trait expression, breeding,
// objective scoring, and population diversity analysis.
package genetics

import "fmt"

// TraitType identifies an observable trait. The set is closed; catalog
// files refer to traits by their canonical String name.
type TraitType uint8

const (
	TraitUnknown TraitType = iota
	Height
	Yield
	GrowthRate
	DiseaseResistance
	PhotosyntheticEfficiency
	FlowerColor
	AromaIntensity
	RootVigor
)

var traitNames = [...]string{
	TraitUnknown:             "Unknown",
	Height:                   "Height",
	Yield:                    "Yield",
	GrowthRate:               "GrowthRate",
	DiseaseResistance:        "DiseaseResistance",
	PhotosyntheticEfficiency: "PhotosyntheticEfficiency",
	FlowerColor:              "FlowerColor",
	AromaIntensity:           "AromaIntensity",
	RootVigor:                "RootVigor",
}

// traitDisplayNames maps traits to human-readable labels. This is the only
// alternate naming for traits; code and catalogs use the canonical names.
var traitDisplayNames = [...]string{
	TraitUnknown:             "Unknown",
	Height:                   "Height",
	Yield:                    "Yield",
	GrowthRate:               "Growth Rate",
	DiseaseResistance:        "Disease Resistance",
	PhotosyntheticEfficiency: "Photosynthetic Efficiency",
	FlowerColor:              "Flower Color",
	AromaIntensity:           "Aroma Intensity",
	RootVigor:                "Root Vigor",
}

// String returns the canonical trait name.
func (t TraitType) String() string {
	if int(t) < len(traitNames) {
		return traitNames[t]
	}
	return fmt.Sprintf("TraitType(%d)", uint8(t))
}

// DisplayName returns the human-readable trait label.
func (t TraitType) DisplayName() string {
	if int(t) < len(traitDisplayNames) {
		return traitDisplayNames[t]
	}
	return t.String()
}

// ParseTraitType resolves a canonical trait name.
func ParseTraitType(s string) (TraitType, error) {
	for i := 1; i < len(traitNames); i++ {
		if traitNames[i] == s {
			return TraitType(i), nil
		}
	}
	return TraitUnknown, fmt.Errorf("unknown trait %q", s)
}

// GeneCategory groups genes by the kind of biology they influence.
type GeneCategory uint8

const (
	CategoryUnknown GeneCategory = iota
	Morphological
	Biochemical
	Physiological
	Developmental
	Resistance
)

var categoryNames = [...]string{
	CategoryUnknown: "Unknown",
	Morphological:   "Morphological",
	Biochemical:     "Biochemical",
	Physiological:   "Physiological",
	Developmental:   "Developmental",
	Resistance:      "Resistance",
}

// String returns the canonical category name.
func (c GeneCategory) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("GeneCategory(%d)", uint8(c))
}

// ParseGeneCategory resolves a canonical category name.
func ParseGeneCategory(s string) (GeneCategory, error) {
	for i := 1; i < len(categoryNames); i++ {
		if categoryNames[i] == s {
			return GeneCategory(i), nil
		}
	}
	return CategoryUnknown, fmt.Errorf("unknown gene category %q", s)
}

// DominanceRule is the policy for resolving an expressed value from an
// unequal allele pair.
type DominanceRule uint8

const (
	// DominanceComplete expresses only the higher-rank allele.
	DominanceComplete DominanceRule = iota
	// DominanceIncomplete blends both alleles into their arithmetic mean.
	DominanceIncomplete
	// DominanceCodominant retains both contributions and exposes a
	// composite value.
	DominanceCodominant
)

var dominanceNames = [...]string{
	DominanceComplete:   "complete",
	DominanceIncomplete: "incomplete",
	DominanceCodominant: "codominant",
}

// String returns the canonical dominance rule name.
func (d DominanceRule) String() string {
	if int(d) < len(dominanceNames) {
		return dominanceNames[d]
	}
	return fmt.Sprintf("DominanceRule(%d)", uint8(d))
}

// ParseDominanceRule resolves a canonical dominance rule name.
func ParseDominanceRule(s string) (DominanceRule, error) {
	for i := 0; i < len(dominanceNames); i++ {
		if dominanceNames[i] == s {
			return DominanceRule(i), nil
		}
	}
	return DominanceComplete, fmt.Errorf("unknown dominance rule %q", s)
}

// Locus is the address of a gene within a genotype.
type Locus string

// Allele is one variant at a locus. Symbol is unique within its gene;
// Contribution is the base expressed value; Rank resolves complete
// dominance (higher wins).
type Allele struct {
	Symbol       string
	Contribution float64
	Rank         int
}

// GeneDefinition describes one gene: its locus symbol, the trait it backs,
// the known alleles, and how an allele pair resolves to an expressed value.
// Definitions are immutable once loaded into a Registry.
type GeneDefinition struct {
	Symbol    Locus
	Name      string
	Category  GeneCategory
	Trait     TraitType
	Dominance DominanceRule
	Alleles   []Allele

	// Min and Max bound the expressed value; allele contributions must
	// fall inside them.
	Min float64
	Max float64

	// Importance weights this locus in population diversity scoring.
	// Zero means unset and defaults to 1 at load.
	Importance float64

	// InbreedingSensitive genes take the inbreeding penalty at
	// expression time when the genotype carries the inbred tag.
	InbreedingSensitive bool
}

// Allele returns the named allele of this gene.
func (d *GeneDefinition) Allele(symbol string) (Allele, bool) {
	for _, a := range d.Alleles {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return Allele{}, false
}

// Range returns the width of the valid expressed-value range.
func (d *GeneDefinition) Range() float64 {
	return d.Max - d.Min
}

// Clamp bounds v to the gene's valid expressed range.
func (d *GeneDefinition) Clamp(v float64) float64 {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}
