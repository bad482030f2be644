package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/episode"
	"github.com/pthm-cable/laserwalk/neural"
)

// HallEntry is a genome that made it into the hall of fame.
type HallEntry struct {
	Genome     *genetics.Genome
	Fitness    float64
	Generation int
	Distance   float64
	Frames     int
	Cause      string
}

// HallOfFame keeps the best genomes seen across the run, one entry per
// genome ID, sorted by descending fitness.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates a hall of fame with the given capacity.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider offers an evaluated genome to the hall. The genome is cloned, so
// later mutation of the population does not touch the hall. Returns true if
// the genome was added or its entry improved.
func (hof *HallOfFame) Consider(genome *genetics.Genome, fitness float64, generation int, res episode.Result) (bool, error) {
	if genome == nil {
		return false, neural.ErrNilGenome
	}

	// Elites keep their IDs across generations; only keep their best run.
	for i, e := range hof.entries {
		if e.Genome.Id != genome.Id {
			continue
		}
		if fitness <= e.Fitness {
			return false, nil
		}
		hof.entries = append(hof.entries[:i], hof.entries[i+1:]...)
		break
	}

	if len(hof.entries) >= hof.maxSize && fitness <= hof.entries[len(hof.entries)-1].Fitness {
		return false, nil
	}

	clone, err := neural.CloneGenome(genome, genome.Id)
	if err != nil {
		return false, fmt.Errorf("cloning genome %d: %w", genome.Id, err)
	}
	entry := HallEntry{
		Genome:     clone,
		Fitness:    fitness,
		Generation: generation,
		Distance:   res.Distance,
		Frames:     res.Frames,
		Cause:      res.Cause.String(),
	}
	hof.entries = hof.insertEntry(hof.entries, entry)
	return true, nil
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) []HallEntry {
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}
	return hall
}

// Entries returns the hall in descending fitness order.
func (hof *HallOfFame) Entries() []HallEntry {
	out := make([]HallEntry, len(hof.entries))
	copy(out, hof.entries)
	return out
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// Best returns the top entry.
func (hof *HallOfFame) Best() (HallEntry, bool) {
	if len(hof.entries) == 0 {
		return HallEntry{}, false
	}
	return hof.entries[0], true
}

// hallEntryJSON is the JSON-serializable representation of a hall entry.
type hallEntryJSON struct {
	GenomeID   int               `json:"genome_id"`
	Fitness    float64           `json:"fitness"`
	Generation int               `json:"generation"`
	Distance   float64           `json:"distance"`
	Frames     int               `json:"frames"`
	Cause      string            `json:"cause"`
	Genome     neural.GenomeJSON `json:"genome"`
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	export := make([]hallEntryJSON, len(hof.entries))
	for i, e := range hof.entries {
		g, err := neural.EncodeGenome(e.Genome)
		if err != nil {
			return nil, fmt.Errorf("encoding genome %d: %w", e.Genome.Id, err)
		}
		export[i] = hallEntryJSON{
			GenomeID:   e.Genome.Id,
			Fitness:    e.Fitness,
			Generation: e.Generation,
			Distance:   e.Distance,
			Frames:     e.Frames,
			Cause:      e.Cause,
			Genome:     g,
		}
	}
	return json.MarshalIndent(export, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file. The capacity is the
// larger of maxSize and the number of entries in the file.
func LoadHallOfFameFromFile(path string, maxSize int) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw []hallEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(max(maxSize, len(raw)))
	for _, ej := range raw {
		g, err := neural.DecodeGenome(ej.Genome)
		if err != nil {
			return nil, fmt.Errorf("hall of fame genome %d: %w", ej.GenomeID, err)
		}
		hof.entries = hof.insertEntry(hof.entries, HallEntry{
			Genome:     g,
			Fitness:    ej.Fitness,
			Generation: ej.Generation,
			Distance:   ej.Distance,
			Frames:     ej.Frames,
			Cause:      ej.Cause,
		})
	}
	return hof, nil
}
