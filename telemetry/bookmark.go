package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewRecord            BookmarkType = "new_record"
	BookmarkDistanceBreakthrough BookmarkType = "distance_breakthrough"
	BookmarkFirstSurvivor        BookmarkType = "first_survivor"
	BookmarkStagnation           BookmarkType = "stagnation"
	BookmarkFailureSpike         BookmarkType = "failure_spike"
)

// Bookmark marks a generation worth looking at.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting generations from their stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	stagnationLimit int

	bestFitness    float64
	haveBest       bool
	sinceImproved  int
	stagnantMarked bool
	sawSurvivor    bool
}

// NewBookmarkDetector creates a detector with the given history size.
// stagnationLimit is the number of generations without a new record
// before a stagnation bookmark fires; 0 disables it.
func NewBookmarkDetector(historySize, stagnationLimit int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:         make([]GenerationStats, historySize),
		historySize:     historySize,
		stagnationLimit: stagnationLimit,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkRecord(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFirstSurvivor(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkDistanceBreakthrough(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFailureSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkStagnation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkRecord(stats GenerationStats) *Bookmark {
	if bd.haveBest && stats.FitnessMax <= bd.bestFitness {
		bd.sinceImproved++
		return nil
	}
	prev, had := bd.bestFitness, bd.haveBest
	bd.bestFitness = stats.FitnessMax
	bd.haveBest = true
	bd.sinceImproved = 0
	bd.stagnantMarked = false
	if !had {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkNewRecord,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Best fitness %.2f beats %.2f", stats.FitnessMax, prev),
	}
}

func (bd *BookmarkDetector) checkFirstSurvivor(stats GenerationStats) *Bookmark {
	if bd.sawSurvivor || stats.Survived == 0 {
		return nil
	}
	bd.sawSurvivor = true
	return &Bookmark{
		Type:        BookmarkFirstSurvivor,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("%d dummies outlasted the frame budget", stats.Survived),
	}
}

func (bd *BookmarkDetector) checkDistanceBreakthrough(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.DistanceMax
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.DistanceMax > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkDistanceBreakthrough,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Max distance %.1f is %.1fx average (%.1f)", stats.DistanceMax, stats.DistanceMax/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkFailureSpike(stats GenerationStats) *Bookmark {
	if stats.Evaluated == 0 {
		return nil
	}
	rate := float64(stats.Failures) / float64(stats.Evaluated)
	if rate < 0.25 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFailureSpike,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("%d of %d episodes failed", stats.Failures, stats.Evaluated),
	}
}

func (bd *BookmarkDetector) checkStagnation(stats GenerationStats) *Bookmark {
	if bd.stagnationLimit <= 0 || bd.stagnantMarked || bd.sinceImproved < bd.stagnationLimit {
		return nil
	}
	bd.stagnantMarked = true
	return &Bookmark{
		Type:        BookmarkStagnation,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("No new record for %d generations (best %.2f)", bd.sinceImproved, bd.bestFitness),
	}
}
