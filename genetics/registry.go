package genetics

import (
	"errors"
	"fmt"
	"sort"
)

// Registry is the immutable gene catalog. Loaded once at startup and then
// shared read-only; concurrent reads need no synchronization.
type Registry struct {
	defs       map[Locus]*GeneDefinition
	order      []Locus
	byTrait    map[TraitType]*GeneDefinition
	byCategory map[GeneCategory][]*GeneDefinition
}

// LoadRegistry validates gene definitions and builds the catalog. It fails
// closed on the first invalid definition: duplicate locus symbols, duplicate
// backing traits, empty or duplicate allele sets, inverted ranges, allele
// contributions outside the declared range, and negative importance all
// abort the load with a ConfigError.
func LoadRegistry(defs []GeneDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New("load registry: no gene definitions")
	}

	r := &Registry{
		defs:       make(map[Locus]*GeneDefinition, len(defs)),
		order:      make([]Locus, 0, len(defs)),
		byTrait:    make(map[TraitType]*GeneDefinition, len(defs)),
		byCategory: make(map[GeneCategory][]*GeneDefinition),
	}

	for i := range defs {
		d := defs[i]
		d.Alleles = append([]Allele(nil), defs[i].Alleles...)

		if d.Symbol == "" {
			return nil, &ConfigError{Code: ConfigDuplicateSymbol, Locus: d.Symbol, Detail: "empty locus symbol"}
		}
		if _, exists := r.defs[d.Symbol]; exists {
			return nil, &ConfigError{Code: ConfigDuplicateSymbol, Locus: d.Symbol}
		}
		if d.Trait == TraitUnknown || int(d.Trait) >= len(traitNames) {
			return nil, &ConfigError{Code: ConfigUnknownTrait, Locus: d.Symbol, Detail: d.Trait.String()}
		}
		if prev, exists := r.byTrait[d.Trait]; exists {
			return nil, &ConfigError{
				Code:   ConfigDuplicateTrait,
				Locus:  d.Symbol,
				Detail: fmt.Sprintf("trait %s already backed by locus %q", d.Trait, prev.Symbol),
			}
		}
		if len(d.Alleles) == 0 {
			return nil, &ConfigError{Code: ConfigNoAlleles, Locus: d.Symbol}
		}
		if d.Max <= d.Min {
			return nil, &ConfigError{
				Code:   ConfigInvalidRange,
				Locus:  d.Symbol,
				Detail: fmt.Sprintf("min %v, max %v", d.Min, d.Max),
			}
		}
		if d.Importance < 0 {
			return nil, &ConfigError{
				Code:   ConfigInvalidImportance,
				Locus:  d.Symbol,
				Detail: fmt.Sprintf("%v", d.Importance),
			}
		}
		if d.Importance == 0 {
			d.Importance = 1
		}

		seen := make(map[string]bool, len(d.Alleles))
		for _, a := range d.Alleles {
			if a.Symbol == "" || seen[a.Symbol] {
				return nil, &ConfigError{Code: ConfigDuplicateAllele, Locus: d.Symbol, Detail: a.Symbol}
			}
			seen[a.Symbol] = true
			if a.Contribution < d.Min || a.Contribution > d.Max {
				return nil, &ConfigError{
					Code:   ConfigInvalidAlleleRange,
					Locus:  d.Symbol,
					Detail: fmt.Sprintf("allele %q contributes %v outside [%v, %v]", a.Symbol, a.Contribution, d.Min, d.Max),
				}
			}
		}

		def := &d
		r.defs[def.Symbol] = def
		r.order = append(r.order, def.Symbol)
		r.byTrait[def.Trait] = def
		r.byCategory[def.Category] = append(r.byCategory[def.Category], def)
	}

	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	return r, nil
}

// Lookup returns the definition at a locus, or ErrNotFound.
func (r *Registry) Lookup(locus Locus) (*GeneDefinition, error) {
	def, ok := r.defs[locus]
	if !ok {
		return nil, fmt.Errorf("%w: locus %q", ErrNotFound, locus)
	}
	return def, nil
}

// ByTrait returns the single gene backing a trait, or an UnknownTraitError.
func (r *Registry) ByTrait(t TraitType) (*GeneDefinition, error) {
	def, ok := r.byTrait[t]
	if !ok {
		return nil, &UnknownTraitError{Trait: t}
	}
	return def, nil
}

// ByCategory returns the genes in a category, in load order.
func (r *Registry) ByCategory(c GeneCategory) []*GeneDefinition {
	return append([]*GeneDefinition(nil), r.byCategory[c]...)
}

// Loci returns all locus symbols in sorted order.
func (r *Registry) Loci() []Locus {
	return append([]Locus(nil), r.order...)
}

// Len returns the number of genes in the catalog.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Definitions returns value copies of every definition in locus order.
func (r *Registry) Definitions() []GeneDefinition {
	out := make([]GeneDefinition, 0, len(r.order))
	for _, locus := range r.order {
		d := *r.defs[locus]
		d.Alleles = append([]Allele(nil), d.Alleles...)
		out = append(out, d)
	}
	return out
}
