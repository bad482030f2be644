package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_NewRecord(t *testing.T) {
	bd := NewBookmarkDetector(10, 0)

	// The first generation sets the baseline without a bookmark
	if got := bd.Check(GenerationStats{Generation: 0, FitnessMax: 10}); hasBookmark(got, BookmarkNewRecord) {
		t.Error("baseline generation should not be a record")
	}
	if got := bd.Check(GenerationStats{Generation: 1, FitnessMax: 10}); hasBookmark(got, BookmarkNewRecord) {
		t.Error("tie should not be a record")
	}
	if got := bd.Check(GenerationStats{Generation: 2, FitnessMax: 12}); !hasBookmark(got, BookmarkNewRecord) {
		t.Error("expected new_record bookmark")
	}
}

func TestBookmarkDetector_DistanceBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10, 0)

	for i := 0; i < 5; i++ {
		bd.Check(GenerationStats{Generation: i, DistanceMax: 20})
	}

	bookmarks := bd.Check(GenerationStats{Generation: 5, DistanceMax: 90})
	if !hasBookmark(bookmarks, BookmarkDistanceBreakthrough) {
		t.Error("expected distance_breakthrough bookmark")
	}
}

func TestBookmarkDetector_DistanceNeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10, 0)
	bd.Check(GenerationStats{DistanceMax: 1})

	if hasBookmark(bd.Check(GenerationStats{DistanceMax: 100}), BookmarkDistanceBreakthrough) {
		t.Error("breakthrough should need at least three generations of history")
	}
}

func TestBookmarkDetector_FirstSurvivorOnce(t *testing.T) {
	bd := NewBookmarkDetector(10, 0)

	bd.Check(GenerationStats{Generation: 0})
	if !hasBookmark(bd.Check(GenerationStats{Generation: 1, Survived: 2}), BookmarkFirstSurvivor) {
		t.Error("expected first_survivor bookmark")
	}
	if hasBookmark(bd.Check(GenerationStats{Generation: 2, Survived: 5}), BookmarkFirstSurvivor) {
		t.Error("first_survivor should fire once")
	}
}

func TestBookmarkDetector_Stagnation(t *testing.T) {
	bd := NewBookmarkDetector(5, 3)

	fired := 0
	for gen := 0; gen < 10; gen++ {
		if hasBookmark(bd.Check(GenerationStats{Generation: gen, FitnessMax: 5}), BookmarkStagnation) {
			fired++
			if gen != 3 {
				t.Errorf("stagnation fired at generation %d, want 3", gen)
			}
		}
	}
	if fired != 1 {
		t.Errorf("stagnation fired %d times, want 1", fired)
	}

	// A new record re-arms the detector
	bd.Check(GenerationStats{Generation: 10, FitnessMax: 6})
	for gen := 11; gen <= 13; gen++ {
		if hasBookmark(bd.Check(GenerationStats{Generation: gen, FitnessMax: 6}), BookmarkStagnation) {
			return
		}
	}
	t.Error("stagnation should fire again after a new record")
}

func TestBookmarkDetector_FailureSpike(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		evaluated int
		want      bool
	}{
		{"none", 0, 100, false},
		{"few", 10, 100, false},
		{"quarter", 25, 100, true},
		{"all", 100, 100, true},
		{"empty", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd := NewBookmarkDetector(5, 0)
			got := hasBookmark(bd.Check(GenerationStats{Failures: tt.failures, Evaluated: tt.evaluated}), BookmarkFailureSpike)
			if got != tt.want {
				t.Errorf("failure_spike = %v, want %v", got, tt.want)
			}
		})
	}
}
