package garden

import (
	"encoding/json"
	"math/rand"
	"sort"

	"github.com/DevonLowjamski/chimera-genetics/genetics"
)

// EliteEntry archives one high-scoring plant with a cloned genotype, so
// the line survives even after the plant leaves the garden.
type EliteEntry struct {
	ID          string
	Score       float64
	Generation  int
	Inbred      bool
	Fingerprint string
	Genotype    *genetics.Genotype
}

// EliteArchive keeps the best-scoring plants seen across generations,
// sorted best first. It doubles as a germplasm bank: when the live
// population is short on breeding stock, Sample draws proven lines back in.
type EliteArchive struct {
	entries     []EliteEntry
	maxSize     int
	tournamentK int
	rng         *rand.Rand
}

// NewEliteArchive creates an archive holding at most maxSize entries.
func NewEliteArchive(maxSize, tournamentK int, rng *rand.Rand) *EliteArchive {
	if maxSize <= 0 {
		maxSize = 32
	}
	if tournamentK <= 0 {
		tournamentK = 3
	}
	return &EliteArchive{
		entries:     make([]EliteEntry, 0, maxSize),
		maxSize:     maxSize,
		tournamentK: tournamentK,
		rng:         rng,
	}
}

// Consider offers a plant for archiving. A plant already archived updates
// only when the new score beats its recorded one. Returns true if the
// archive changed.
func (a *EliteArchive) Consider(entry EliteEntry) bool {
	for i := range a.entries {
		if a.entries[i].ID != entry.ID {
			continue
		}
		if entry.Score <= a.entries[i].Score {
			return false
		}
		a.entries = append(a.entries[:i], a.entries[i+1:]...)
		break
	}

	// Insertion point, sorted descending by score
	idx := sort.Search(len(a.entries), func(i int) bool {
		return a.entries[i].Score < entry.Score
	})

	// Full and the entry would rank below the cut
	if len(a.entries) >= a.maxSize && idx >= a.maxSize {
		return false
	}

	a.entries = append(a.entries, EliteEntry{})
	copy(a.entries[idx+1:], a.entries[idx:])
	a.entries[idx] = entry

	if len(a.entries) > a.maxSize {
		a.entries = a.entries[:a.maxSize]
	}
	return true
}

// Sample selects an entry by tournament: best score among k random picks.
// Returns nil if the archive is empty.
func (a *EliteArchive) Sample() *EliteEntry {
	if len(a.entries) == 0 {
		return nil
	}
	var best *EliteEntry
	for i := 0; i < a.tournamentK && i < len(a.entries); i++ {
		idx := a.rng.Intn(len(a.entries))
		candidate := &a.entries[idx]
		if best == nil || candidate.Score > best.Score {
			best = candidate
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// Best returns the top entry, or nil if the archive is empty.
func (a *EliteArchive) Best() *EliteEntry {
	if len(a.entries) == 0 {
		return nil
	}
	out := a.entries[0]
	return &out
}

// Len returns the number of archived entries.
func (a *EliteArchive) Len() int {
	return len(a.entries)
}

// Entries returns a copy of the archive, best first.
func (a *EliteArchive) Entries() []EliteEntry {
	return append([]EliteEntry(nil), a.entries...)
}

// eliteJSON is the serialized form of one archive entry.
type eliteJSON struct {
	ID          string             `json:"id"`
	Score       float64            `json:"score"`
	Generation  int                `json:"generation"`
	Inbred      bool               `json:"inbred,omitempty"`
	Fingerprint string             `json:"fingerprint"`
	Genotype    *genetics.Genotype `json:"genotype"`
}

// MarshalJSON serializes the archive best-first.
func (a *EliteArchive) MarshalJSON() ([]byte, error) {
	export := make([]eliteJSON, len(a.entries))
	for i, entry := range a.entries {
		export[i] = eliteJSON{
			ID:          entry.ID,
			Score:       entry.Score,
			Generation:  entry.Generation,
			Inbred:      entry.Inbred,
			Fingerprint: entry.Fingerprint,
			Genotype:    entry.Genotype,
		}
	}
	return json.MarshalIndent(export, "", "  ")
}
