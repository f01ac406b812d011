package genetics

// Environment is a point-in-time snapshot of the growing conditions a
// phenotype is expressed under. It is a plain comparable value: two equal
// snapshots key the same expression cache entry.
type Environment struct {
	Temperature float64 // degrees C
	Humidity    float64 // relative, 0..1
	Light       float64 // normalized intensity, 0..1
	CO2         float64 // ppm
	Nutrients   float64 // availability, 0..1
}

// Modifier adjusts a base trait value as v*Scale + Offset before clamping.
type Modifier struct {
	Scale  float64
	Offset float64
}

// NeutralModifier leaves the base value untouched.
func NeutralModifier() Modifier {
	return Modifier{Scale: 1}
}

// ModifierFunc maps an environment snapshot to a per-trait modifier. The
// environment collaborator supplies one; nil means neutral everywhere.
type ModifierFunc func(trait TraitType, env Environment) Modifier

// CompositeFunc blends the two retained contributions of a codominant
// locus into a single exposed value.
type CompositeFunc func(trait TraitType, maternal, paternal float64) float64
