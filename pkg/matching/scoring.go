package matching

import (
	"math"
	"strings"
	"time"

	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/normalizers"
)

// Scorer provides the field comparison algorithms used to score item pairs
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactFold returns 1.0 when both values are non-empty and equal after
// case folding, 0.0 otherwise
func (s *Scorer) ExactFold(a, b string) float64 {
	a = normalizers.Fold(a)
	b = normalizers.Fold(b)
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// Jaccard calculates token set overlap between two token sets.
// Returns intersection over union, 0.0 when either set is empty.
func (s *Scorer) Jaccard(a, b normalizers.TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	union := a.Union(b)
	if union == 0 {
		return 0.0
	}
	return float64(a.Intersection(b)) / float64(union)
}

// SequenceRatio calculates Ratcliff/Obershelp similarity between two strings
// after lowercasing. Returns 2*M/T where M is the total length of matching
// blocks and T the combined length. Two empty strings are identical (1.0).
func (s *Scorer) SequenceRatio(a, b string) float64 {
	ar := []rune(strings.ToLower(a))
	br := []rune(strings.ToLower(b))
	if len(ar) == 0 && len(br) == 0 {
		return 1.0
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0.0
	}
	m := matchingRunes(ar, br)
	return 2.0 * float64(m) / float64(len(ar)+len(br))
}

// matchingRunes counts matched runes by recursing around the longest common
// block, the way Ratcliff/Obershelp defines matches
func matchingRunes(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingRunes(a[:ai], b[:bi]) + matchingRunes(a[ai+size:], b[bi+size:])
}

// longestCommonBlock finds the earliest longest common substring of a and b
func longestCommonBlock(a, b []rune) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] != b[j] {
				cur[j+1] = 0
				continue
			}
			cur[j+1] = prev[j] + 1
			if cur[j+1] > bestSize {
				bestSize = cur[j+1]
				bestA = i - bestSize + 1
				bestB = j - bestSize + 1
			}
		}
		prev, cur = cur, prev
	}

	return bestA, bestB, bestSize
}

// DateProximity calculates a proximity score for two dates
// Returns 1.0 for the same day, decreasing linearly to 0.0 at windowDays
func (s *Scorer) DateProximity(a, b time.Time, windowDays int) float64 {
	if a.IsZero() || b.IsZero() {
		return 0.0
	}

	daysDiff := math.Abs(a.Sub(b).Hours() / 24)

	if daysDiff >= float64(windowDays) {
		return 0.0
	}

	// Linear decay
	return 1.0 - (daysDiff / float64(windowDays))
}

// Breakdown scores an item pair across every dimension. Brand vs model and
// title vs description are each compared field to field and the better field
// carries the points. Component points are rounded to two decimals, the total
// to one, so persisted breakdowns always sum to their total.
func (s *Scorer) Breakdown(a, b *models.Item, cfg Config) models.ScoreBreakdown {
	w := cfg.Weights

	brandSim := s.Jaccard(normalizers.Tokenize(a.Brand), normalizers.Tokenize(b.Brand))
	modelSim := s.Jaccard(normalizers.Tokenize(a.ModelOrMarkings), normalizers.Tokenize(b.ModelOrMarkings))
	titleSim := s.SequenceRatio(a.Title, b.Title)
	descSim := s.SequenceRatio(a.Description, b.Description)

	bd := models.ScoreBreakdown{
		Building:         round2(w.Building * s.ExactFold(a.Building, b.Building)),
		Color:            round2(w.Color * s.ExactFold(a.ColorPrimary, b.ColorPrimary)),
		BrandModelTokens: round2(w.BrandModel * math.Max(brandSim, modelSim)),
		TitleDescText:    round2(w.TitleDesc * math.Max(titleSim, descSim)),
		DateProximity:    round2(w.DateProximity * s.DateProximity(derefTime(a.DateLostOrFound), derefTime(b.DateLostOrFound), cfg.WindowDays)),
		RoomTokens:       round2(w.Room * s.Jaccard(normalizers.Tokenize(a.RoomOrArea), normalizers.Tokenize(b.RoomOrArea))),
	}

	bd.Total = round1(bd.Building + bd.Color + bd.BrandModelTokens + bd.TitleDescText + bd.DateProximity + bd.RoomTokens)
	return bd
}

// Score returns just the total for an item pair
func (s *Scorer) Score(a, b *models.Item, cfg Config) float64 {
	return s.Breakdown(a, b, cfg).Total
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
