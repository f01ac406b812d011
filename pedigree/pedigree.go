// Package pedigree tracks plant parentage so the breeding simulator can
// detect crossings between close kin. Births append to a Store; Related
// walks recorded ancestry to a bounded depth.
package pedigree

import (
	"context"
	"log/slog"

	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

// Record is one recorded birth. Founders have empty parent IDs.
type Record struct {
	ID         string `json:"id"`
	ParentA    string `json:"parent_a,omitempty"`
	ParentB    string `json:"parent_b,omitempty"`
	Generation int    `json:"generation"`
}

// Store records births and answers parentage lookups. Implementations
// must be safe for concurrent use.
type Store interface {
	// AddBirth records a birth, replacing any earlier record for the same ID.
	AddBirth(ctx context.Context, rec Record) error
	// Parents returns the birth record for a plant, reporting whether one exists.
	Parents(ctx context.Context, id string) (Record, bool, error)
	// Records returns all birth records in a stable order.
	Records(ctx context.Context) ([]Record, error)
	Close() error
}

// Related reports whether two plants share an ancestor within depth
// generations. A plant counts among its own ancestors, so selfing and
// parent-child crossings are always related. Depth 0 flags selfing only.
func Related(ctx context.Context, store Store, a, b string, depth int) (bool, error) {
	if a == "" || b == "" {
		return false, nil
	}
	if a == b {
		return true, nil
	}
	ancestorsA, err := ancestors(ctx, store, a, depth)
	if err != nil {
		return false, err
	}
	ancestorsB, err := ancestors(ctx, store, b, depth)
	if err != nil {
		return false, err
	}
	for id := range ancestorsA {
		if ancestorsB[id] {
			return true, nil
		}
	}
	return false, nil
}

// ancestors walks up to depth generations, returning every ID reachable
// through recorded parents, the starting plant included.
func ancestors(ctx context.Context, store Store, id string, depth int) (map[string]bool, error) {
	seen := map[string]bool{id: true}
	frontier := []string{id}
	for g := 0; g < depth && len(frontier) > 0; g++ {
		var next []string
		for _, cur := range frontier {
			rec, ok, err := store.Parents(ctx, cur)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			for _, parent := range [2]string{rec.ParentA, rec.ParentB} {
				if parent == "" || seen[parent] {
					continue
				}
				seen[parent] = true
				next = append(next, parent)
			}
		}
		frontier = next
	}
	return seen, nil
}

// Predicate adapts a Store into the breeding engine's relatedness check.
// Store failures are logged and treated as unrelated so a degraded
// pedigree store cannot halt breeding.
func Predicate(ctx context.Context, store Store, depth int) genetics.RelatednessFunc {
	return func(parentAID, parentBID string) bool {
		related, err := Related(ctx, store, parentAID, parentBID, depth)
		if err != nil {
			slog.Warn("pedigree relatedness check failed",
				"parent_a", parentAID,
				"parent_b", parentBID,
				"error", err)
			return false
		}
		return related
	}
}
