package genetics

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestExpressCompleteDominance(t *testing.T) {
	reg := newTestRegistry(t)

	tests := []struct {
		name string
		pair [2]string
		want float64
	}{
		{"tall over short", [2]string{"h+", "h-"}, 150},
		{"order irrelevant", [2]string{"h-", "h+"}, 150},
		{"homozygous tall", [2]string{"h+", "h+"}, 150},
		{"homozygous short", [2]string{"h-", "h-"}, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assignment := fullAssignment()
			assignment["HGT1"] = tt.pair
			g := newTestGenotype(t, reg, assignment)

			got, err := ExpressTrait(reg, g, Environment{}, Height, ExpressOptions{})
			if err != nil {
				t.Fatalf("ExpressTrait: %v", err)
			}
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Height = %v, want %v", got, tt.want)
			}
		})
	}
}

// The recessive contribution must never leak through while the dominant
// allele is present, whatever the pair order.
func TestExpressDominantAlwaysWins(t *testing.T) {
	reg := newTestRegistry(t)

	for _, pair := range [][2]string{{"h+", "h-"}, {"h-", "h+"}} {
		assignment := fullAssignment()
		assignment["HGT1"] = pair
		g := newTestGenotype(t, reg, assignment)

		got, err := ExpressTrait(reg, g, Environment{}, Height, ExpressOptions{})
		if err != nil {
			t.Fatalf("ExpressTrait: %v", err)
		}
		if got == 80 {
			t.Errorf("pair %v expressed the recessive value", pair)
		}
	}
}

func TestExpressIncompleteDominance(t *testing.T) {
	reg := newTestRegistry(t)
	g := newTestGenotype(t, reg, fullAssignment())

	got, err := ExpressTrait(reg, g, Environment{}, Yield, ExpressOptions{})
	if err != nil {
		t.Fatalf("ExpressTrait: %v", err)
	}
	if math.Abs(got-650) > 0.001 {
		t.Errorf("Yield = %v, want 650 (mean of 900 and 400)", got)
	}
}

func TestExpressCodominant(t *testing.T) {
	reg := newTestRegistry(t)
	g := newTestGenotype(t, reg, fullAssignment())

	profile, err := Express(reg, g, Environment{}, ExpressOptions{})
	if err != nil {
		t.Fatalf("Express: %v", err)
	}
	if math.Abs(profile.Values[FlowerColor]-0.5) > 0.001 {
		t.Errorf("FlowerColor = %v, want 0.5 (default mean)", profile.Values[FlowerColor])
	}
	both, ok := profile.Codominant[FlowerColor]
	if !ok {
		t.Fatal("codominant contributions not retained")
	}
	if both[0] != 0.9 || both[1] != 0.1 {
		t.Errorf("retained contributions = %v, want [0.9 0.1]", both)
	}

	// A caller-supplied composite replaces the mean.
	maxOf := func(_ TraitType, a, b float64) float64 { return math.Max(a, b) }
	profile, err = Express(reg, g, Environment{}, ExpressOptions{Composite: maxOf})
	if err != nil {
		t.Fatalf("Express with composite: %v", err)
	}
	if math.Abs(profile.Values[FlowerColor]-0.9) > 0.001 {
		t.Errorf("composite FlowerColor = %v, want 0.9", profile.Values[FlowerColor])
	}
}

func TestExpressEnvironmentModifier(t *testing.T) {
	reg := newTestRegistry(t)
	g := newTestGenotype(t, reg, fullAssignment())

	tests := []struct {
		name string
		mod  Modifier
		want float64
	}{
		{"scale up", Modifier{Scale: 1.2}, 180},
		{"offset", Modifier{Scale: 1, Offset: -30}, 120},
		{"clamped to max", Modifier{Scale: 2}, 200},
		{"clamped to min", Modifier{Scale: 0.1}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			heightOnly := func(trait TraitType, _ Environment) Modifier {
				if trait == Height {
					return tt.mod
				}
				return NeutralModifier()
			}
			got, err := ExpressTrait(reg, g, Environment{}, Height, ExpressOptions{Modifier: heightOnly})
			if err != nil {
				t.Fatalf("ExpressTrait: %v", err)
			}
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Height = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpressInbreedingPenalty(t *testing.T) {
	reg := newTestRegistry(t)

	assignment := fullAssignment()
	assignment["YLD1"] = [2]string{"Y", "Y"}
	assignment["HGT1"] = [2]string{"h+", "h+"}
	parent := newTestGenotype(t, reg, assignment)

	result, err := Breed(reg, parent, parent, BreedOptions{
		RNG:     rand.New(rand.NewSource(3)),
		Related: func(a, b string) bool { return true },
	})
	if err != nil {
		t.Fatalf("Breed: %v", err)
	}

	opts := ExpressOptions{InbreedingPenalty: 0.25}
	profile, err := Express(reg, result.Offspring, Environment{}, opts)
	if err != nil {
		t.Fatalf("Express: %v", err)
	}

	// Yield is inbreeding-sensitive: 900 * 0.75.
	if math.Abs(profile.Values[Yield]-675) > 0.001 {
		t.Errorf("inbred Yield = %v, want 675", profile.Values[Yield])
	}
	// Height is not sensitive and stays put.
	if math.Abs(profile.Values[Height]-150) > 0.001 {
		t.Errorf("inbred Height = %v, want 150", profile.Values[Height])
	}

	// The same genotype without the penalty configured expresses fully.
	profile, err = Express(reg, result.Offspring, Environment{}, ExpressOptions{})
	if err != nil {
		t.Fatalf("Express: %v", err)
	}
	if math.Abs(profile.Values[Yield]-900) > 0.001 {
		t.Errorf("unpenalized Yield = %v, want 900", profile.Values[Yield])
	}
}

func TestExpressUnknownTrait(t *testing.T) {
	reg := newTestRegistry(t)
	g := newTestGenotype(t, reg, fullAssignment())

	profile, err := Express(reg, g, Environment{}, ExpressOptions{Traits: []TraitType{Height, AromaIntensity}})
	var traitErr *UnknownTraitError
	if !errors.As(err, &traitErr) {
		t.Fatalf("error = %v, want UnknownTraitError", err)
	}
	if traitErr.Trait != AromaIntensity {
		t.Errorf("trait = %v, want AromaIntensity", traitErr.Trait)
	}
	// The backed trait is still usable despite the error.
	if math.Abs(profile.Values[Height]-150) > 0.001 {
		t.Errorf("Height = %v, want 150", profile.Values[Height])
	}
}

func TestExpressTraitSubset(t *testing.T) {
	reg := newTestRegistry(t)
	g := newTestGenotype(t, reg, fullAssignment())

	profile, err := Express(reg, g, Environment{}, ExpressOptions{Traits: []TraitType{Height}})
	if err != nil {
		t.Fatalf("Express: %v", err)
	}
	if len(profile.Values) != 1 {
		t.Errorf("expressed %d traits, want 1", len(profile.Values))
	}
	if _, ok := profile.Values[Yield]; ok {
		t.Error("Yield expressed despite subset")
	}
}

func TestExpressPure(t *testing.T) {
	reg := newTestRegistry(t)
	g := newTestGenotype(t, reg, fullAssignment())
	env := Environment{Temperature: 24, Humidity: 0.6, Light: 0.8, CO2: 420, Nutrients: 0.7}

	first, err := Express(reg, g, env, ExpressOptions{})
	if err != nil {
		t.Fatalf("Express: %v", err)
	}
	second, err := Express(reg, g, env, ExpressOptions{})
	if err != nil {
		t.Fatalf("Express: %v", err)
	}
	for trait, want := range first.Values {
		if got := second.Values[trait]; got != want {
			t.Errorf("%s = %v on repeat, want %v", trait, got, want)
		}
	}
}

func TestExpressionCache(t *testing.T) {
	reg := newTestRegistry(t)
	g := newTestGenotype(t, reg, fullAssignment())
	env := Environment{Temperature: 22}

	cache, err := NewExpressionCache(reg, ExpressOptions{}, 16)
	if err != nil {
		t.Fatalf("NewExpressionCache: %v", err)
	}

	direct, err := Express(reg, g, env, ExpressOptions{})
	if err != nil {
		t.Fatalf("Express: %v", err)
	}
	cached, err := cache.Express(g, env)
	if err != nil {
		t.Fatalf("cache Express: %v", err)
	}
	for trait, want := range direct.Values {
		if got := cached.Values[trait]; got != want {
			t.Errorf("cached %s = %v, want %v", trait, got, want)
		}
	}

	// Second identical call must hit.
	if _, err := cache.Express(g, env); err != nil {
		t.Fatalf("cache Express: %v", err)
	}
	hits, misses, size := cache.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Errorf("stats = %d hits %d misses %d entries, want 1/1/1", hits, misses, size)
	}

	// A different environment is a different key.
	if _, err := cache.Express(g, Environment{Temperature: 30}); err != nil {
		t.Fatalf("cache Express: %v", err)
	}
	if _, misses, _ = cache.Stats(); misses != 2 {
		t.Errorf("misses = %d after new environment, want 2", misses)
	}
}

func TestExpressionCacheReturnsCopies(t *testing.T) {
	reg := newTestRegistry(t)
	g := newTestGenotype(t, reg, fullAssignment())
	env := Environment{}

	cache, err := NewExpressionCache(reg, ExpressOptions{}, 16)
	if err != nil {
		t.Fatalf("NewExpressionCache: %v", err)
	}

	first, err := cache.Express(g, env)
	if err != nil {
		t.Fatalf("cache Express: %v", err)
	}
	first.Values[Height] = -999

	second, err := cache.Express(g, env)
	if err != nil {
		t.Fatalf("cache Express: %v", err)
	}
	if second.Values[Height] != 150 {
		t.Errorf("cache entry corrupted by caller: Height = %v", second.Values[Height])
	}
}
