package garden

import "github.com/DevonLowjamski/chimera-genetics/genetics"

// Plant identifies one growing plant and its parentage.
type Plant struct {
	ID         string
	Generation int
	ParentA    string
	ParentB    string
}

// Genome carries the plant's immutable genotype.
type Genome struct {
	G *genetics.Genotype
}

// Expressed holds the phenotype from the latest expression pass. Valid is
// false until the plant has been expressed at least once.
type Expressed struct {
	Profile genetics.PhenotypeProfile
	Valid   bool
}
