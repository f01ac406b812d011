package genetics

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestBreedDeterministic(t *testing.T) {
	reg := newTestRegistry(t)
	parentA := newTestGenotype(t, reg, fullAssignment())

	other := fullAssignment()
	other["HGT1"] = [2]string{"h-", "h-"}
	other["DSR1"] = [2]string{"dm", "d"}
	parentB := newTestGenotype(t, reg, other)

	run := func(seed int64) []string {
		opts := BreedOptions{RNG: rand.New(rand.NewSource(seed)), MutationRate: 0.3, AllowDeNovo: true}
		results, err := BreedBatch(reg, parentA, parentB, 10, opts)
		if err != nil {
			t.Fatalf("BreedBatch: %v", err)
		}
		prints := make([]string, len(results))
		for i, r := range results {
			prints[i] = r.Offspring.Fingerprint()
		}
		return prints
	}

	first := run(42)
	second := run(42)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("offspring %d differs across identical seeds", i)
		}
	}

	third := run(43)
	same := true
	for i := range first {
		if first[i] != third[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical offspring batches")
	}
}

func TestBreedIndependentAssortment(t *testing.T) {
	reg := newTestRegistry(t)
	parent := newTestGenotype(t, reg, fullAssignment())
	rng := rand.New(rand.NewSource(11))

	counts := make(map[[2]string]int)
	const trials = 400
	for i := 0; i < trials; i++ {
		result, err := Breed(reg, parent, parent, BreedOptions{RNG: rng})
		if err != nil {
			t.Fatalf("Breed: %v", err)
		}
		pair, _ := result.Offspring.AllelesAt("HGT1")
		counts[pair.Symbols()]++

		got, err := ExpressTrait(reg, result.Offspring, Environment{}, Height, ExpressOptions{})
		if err != nil {
			t.Fatalf("ExpressTrait: %v", err)
		}
		want := 150.0
		if pair[0].Symbol == "h-" && pair[1].Symbol == "h-" {
			want = 80.0
		}
		if math.Abs(got-want) > 0.001 {
			t.Fatalf("offspring %v expressed Height %v, want %v", pair.Symbols(), got, want)
		}
	}

	// Two het parents give each ordered combination probability 1/4.
	combos := [][2]string{{"h+", "h+"}, {"h+", "h-"}, {"h-", "h+"}, {"h-", "h-"}}
	for _, combo := range combos {
		n := counts[combo]
		if n < trials/8 || n > trials/2 {
			t.Errorf("combination %v seen %d times in %d, want near %d", combo, n, trials, trials/4)
		}
	}
}

func TestBreedMutationRateZero(t *testing.T) {
	reg := newTestRegistry(t)
	parent := newTestGenotype(t, reg, fullAssignment())
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 50; i++ {
		result, err := Breed(reg, parent, parent, BreedOptions{RNG: rng})
		if err != nil {
			t.Fatalf("Breed: %v", err)
		}
		if result.MutatedLoci != 0 {
			t.Fatalf("mutation with rate 0: %d loci", result.MutatedLoci)
		}
		for _, locus := range result.Offspring.Loci() {
			childPair, _ := result.Offspring.AllelesAt(locus)
			parentPair, _ := parent.AllelesAt(locus)
			for _, allele := range childPair {
				if allele.Symbol != parentPair[0].Symbol && allele.Symbol != parentPair[1].Symbol {
					t.Fatalf("locus %s gained allele %q absent from parents", locus, allele.Symbol)
				}
			}
		}
	}
}

func TestBreedMutationDeNovo(t *testing.T) {
	reg := newTestRegistry(t)

	assignment := fullAssignment()
	assignment["DSR1"] = [2]string{"d", "d"}
	parent := newTestGenotype(t, reg, assignment)

	// Without de novo the pool at a homozygous locus is the single parent
	// allele, so mutation can never change anything there.
	rng := rand.New(rand.NewSource(9))
	sawNovel := false
	for i := 0; i < 30; i++ {
		result, err := Breed(reg, parent, parent, BreedOptions{RNG: rng, MutationRate: 1})
		if err != nil {
			t.Fatalf("Breed: %v", err)
		}
		pair, _ := result.Offspring.AllelesAt("DSR1")
		for _, allele := range pair {
			if allele.Symbol != "d" {
				sawNovel = true
			}
		}
	}
	if sawNovel {
		t.Error("mutation introduced a novel allele without de novo enabled")
	}

	// With de novo the full known set (D, dm, d) is in play.
	rng = rand.New(rand.NewSource(9))
	sawNovel = false
	for i := 0; i < 30; i++ {
		result, err := Breed(reg, parent, parent, BreedOptions{RNG: rng, MutationRate: 1, AllowDeNovo: true})
		if err != nil {
			t.Fatalf("Breed: %v", err)
		}
		pair, _ := result.Offspring.AllelesAt("DSR1")
		for _, allele := range pair {
			if allele.Symbol != "d" {
				sawNovel = true
			}
		}
		if result.MutatedLoci > result.Offspring.Len() {
			t.Fatalf("MutatedLoci %d exceeds locus count", result.MutatedLoci)
		}
	}
	if !sawNovel {
		t.Error("de novo mutation never introduced a novel allele in 30 attempts")
	}
}

func TestBreedErrors(t *testing.T) {
	reg := newTestRegistry(t)
	parent := newTestGenotype(t, reg, fullAssignment())
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name     string
		parentA  *Genotype
		parentB  *Genotype
		opts     BreedOptions
		wantCode BreedingErrorCode
	}{
		{"nil parent A", nil, parent, BreedOptions{RNG: rng}, BreedNullParent},
		{"nil parent B", parent, nil, BreedOptions{RNG: rng}, BreedNullParent},
		{"missing rng", parent, parent, BreedOptions{}, BreedMissingRandSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Breed(reg, tt.parentA, tt.parentB, tt.opts)
			var breedErr *BreedingError
			if !errors.As(err, &breedErr) {
				t.Fatalf("error = %v, want BreedingError", err)
			}
			if breedErr.Code != tt.wantCode {
				t.Errorf("code = %v, want %v", breedErr.Code, tt.wantCode)
			}
		})
	}
}

func TestBreedIncompatiblePloidy(t *testing.T) {
	reg := newTestRegistry(t)
	parentA := newTestGenotype(t, reg, fullAssignment())

	narrow, err := LoadRegistry(testDefinitions()[:2])
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	parentB, err := NewGenotype(narrow, map[Locus][2]string{
		"HGT1": {"h+", "h-"},
		"YLD1": {"Y", "y"},
	})
	if err != nil {
		t.Fatalf("NewGenotype: %v", err)
	}

	_, err = Breed(reg, parentA, parentB, BreedOptions{RNG: rand.New(rand.NewSource(1))})
	var breedErr *BreedingError
	if !errors.As(err, &breedErr) {
		t.Fatalf("error = %v, want BreedingError", err)
	}
	if breedErr.Code != BreedIncompatiblePloidy {
		t.Errorf("code = %v, want incompatible ploidy", breedErr.Code)
	}
}

func TestBreedRelatedness(t *testing.T) {
	reg := newTestRegistry(t)
	parent := newTestGenotype(t, reg, fullAssignment())

	result, err := Breed(reg, parent, parent, BreedOptions{
		RNG:       rand.New(rand.NewSource(2)),
		ParentAID: "plant-1",
		ParentBID: "plant-1",
		Related:   func(a, b string) bool { return a == b },
	})
	if err != nil {
		t.Fatalf("Breed: %v", err)
	}
	if !result.Inbred || !result.Offspring.Inbred() {
		t.Error("selfing not flagged inbred")
	}
	if result.ParentAID != "plant-1" || result.ParentBID != "plant-1" {
		t.Errorf("parent ids = %q %q, want plant-1 plant-1", result.ParentAID, result.ParentBID)
	}

	result, err = Breed(reg, parent, parent, BreedOptions{
		RNG:       rand.New(rand.NewSource(2)),
		ParentAID: "plant-1",
		ParentBID: "plant-2",
		Related:   func(a, b string) bool { return a == b },
	})
	if err != nil {
		t.Fatalf("Breed: %v", err)
	}
	if result.Inbred || result.Offspring.Inbred() {
		t.Error("unrelated parents flagged inbred")
	}
}

func TestBreedLeavesParentsUntouched(t *testing.T) {
	reg := newTestRegistry(t)
	parentA := newTestGenotype(t, reg, fullAssignment())
	parentB := newTestGenotype(t, reg, fullAssignment())

	beforeA := parentA.Fingerprint()
	beforeB := parentB.Fingerprint()

	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 20; i++ {
		if _, err := Breed(reg, parentA, parentB, BreedOptions{RNG: rng, MutationRate: 1, AllowDeNovo: true}); err != nil {
			t.Fatalf("Breed: %v", err)
		}
	}

	if parentA.Fingerprint() != beforeA || parentB.Fingerprint() != beforeB {
		t.Error("breeding mutated a parent genotype")
	}
}

func TestBreedBatch(t *testing.T) {
	reg := newTestRegistry(t)
	parent := newTestGenotype(t, reg, fullAssignment())

	results, err := BreedBatch(reg, parent, parent, 5, BreedOptions{RNG: rand.New(rand.NewSource(6))})
	if err != nil {
		t.Fatalf("BreedBatch: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("batch size = %d, want 5", len(results))
	}

	if _, err := BreedBatch(reg, parent, parent, 0, BreedOptions{RNG: rand.New(rand.NewSource(6))}); err == nil {
		t.Error("zero-count batch did not error")
	}
}
