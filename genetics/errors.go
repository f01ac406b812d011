package genetics

import (
	"errors"
	"fmt"
)

// ErrNotFound marks registry lookups for loci absent from the catalog.
var ErrNotFound = errors.New("gene not found")

// ConfigErrorCode classifies gene catalog failures.
type ConfigErrorCode uint8

const (
	ConfigDuplicateSymbol ConfigErrorCode = iota
	ConfigDuplicateAllele
	ConfigDuplicateTrait
	ConfigNoAlleles
	ConfigInvalidRange
	ConfigInvalidAlleleRange
	ConfigInvalidImportance
	ConfigUnknownTrait
)

var configCodeNames = [...]string{
	ConfigDuplicateSymbol:    "duplicate symbol",
	ConfigDuplicateAllele:    "duplicate allele",
	ConfigDuplicateTrait:     "duplicate trait",
	ConfigNoAlleles:          "no alleles",
	ConfigInvalidRange:       "invalid range",
	ConfigInvalidAlleleRange: "allele outside range",
	ConfigInvalidImportance:  "invalid importance",
	ConfigUnknownTrait:       "unknown trait",
}

// String returns the code's short description.
func (c ConfigErrorCode) String() string {
	if int(c) < len(configCodeNames) {
		return configCodeNames[c]
	}
	return fmt.Sprintf("ConfigErrorCode(%d)", uint8(c))
}

// ConfigError reports an invalid gene definition. Registry load fails
// closed on the first one found; no definition is ever silently dropped.
type ConfigError struct {
	Code   ConfigErrorCode
	Locus  Locus
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("gene config: %s at locus %q", e.Code, e.Locus)
	}
	return fmt.Sprintf("gene config: %s at locus %q: %s", e.Code, e.Locus, e.Detail)
}

// ValidationErrorCode classifies genotype construction failures.
type ValidationErrorCode uint8

const (
	ValidationUnknownLocus ValidationErrorCode = iota
	ValidationUnknownAllele
	ValidationMissingLocus
)

var validationCodeNames = [...]string{
	ValidationUnknownLocus:  "unknown locus",
	ValidationUnknownAllele: "unknown allele",
	ValidationMissingLocus:  "missing locus",
}

// String returns the code's short description.
func (c ValidationErrorCode) String() string {
	if int(c) < len(validationCodeNames) {
		return validationCodeNames[c]
	}
	return fmt.Sprintf("ValidationErrorCode(%d)", uint8(c))
}

// ValidationError rejects a malformed genotype construction request. The
// individual is simply not created; registry state is unaffected.
type ValidationError struct {
	Code   ValidationErrorCode
	Locus  Locus
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("genotype: %s at locus %q", e.Code, e.Locus)
	}
	return fmt.Sprintf("genotype: %s at locus %q: %s", e.Code, e.Locus, e.Detail)
}

// UnknownTraitError reports an expression or scoring request for a trait
// no registry gene backs. Callers may treat it as "not applicable".
type UnknownTraitError struct {
	Trait TraitType
}

func (e *UnknownTraitError) Error() string {
	return fmt.Sprintf("no gene backs trait %s", e.Trait)
}

// BreedingErrorCode classifies breeding failures.
type BreedingErrorCode uint8

const (
	BreedNullParent BreedingErrorCode = iota
	BreedIncompatiblePloidy
	BreedMissingRandSource
	BreedUnknownLocus
)

var breedingCodeNames = [...]string{
	BreedNullParent:         "null parent",
	BreedIncompatiblePloidy: "incompatible ploidy",
	BreedMissingRandSource:  "missing random source",
	BreedUnknownLocus:       "unknown locus",
}

// String returns the code's short description.
func (c BreedingErrorCode) String() string {
	if int(c) < len(breedingCodeNames) {
		return breedingCodeNames[c]
	}
	return fmt.Sprintf("BreedingErrorCode(%d)", uint8(c))
}

// BreedingError aborts a breeding call. No partial offspring is ever
// produced.
type BreedingError struct {
	Code   BreedingErrorCode
	Detail string
}

func (e *BreedingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("breeding: %s", e.Code)
	}
	return fmt.Sprintf("breeding: %s: %s", e.Code, e.Detail)
}
