package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/normalizers"
)

func TestScorer_ExactFold(t *testing.T) {
	s := NewScorer()

	t.Run("case insensitive match", func(t *testing.T) {
		assert.Equal(t, 1.0, s.ExactFold("Library West", "library west"))
		assert.Equal(t, 1.0, s.ExactFold("SILVER", "Silver"))
	})

	t.Run("mismatch", func(t *testing.T) {
		assert.Equal(t, 0.0, s.ExactFold("Library", "Union"))
	})

	t.Run("empty values never match", func(t *testing.T) {
		assert.Equal(t, 0.0, s.ExactFold("", ""))
		assert.Equal(t, 0.0, s.ExactFold("Library", ""))
		assert.Equal(t, 0.0, s.ExactFold("  ", "  "))
	})
}

func TestScorer_Jaccard(t *testing.T) {
	s := NewScorer()

	t.Run("identical sets", func(t *testing.T) {
		a := normalizers.Tokenize("dell xps 13")
		assert.Equal(t, 1.0, s.Jaccard(a, a))
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := normalizers.Tokenize("dell xps 13")
		b := normalizers.Tokenize("dell xps")
		assert.InDelta(t, 2.0/3.0, s.Jaccard(a, b), 1e-9)
	})

	t.Run("no overlap", func(t *testing.T) {
		a := normalizers.Tokenize("hydro flask")
		b := normalizers.Tokenize("dell xps")
		assert.Equal(t, 0.0, s.Jaccard(a, b))
	})

	t.Run("either side empty scores zero", func(t *testing.T) {
		a := normalizers.Tokenize("dell xps")
		assert.Equal(t, 0.0, s.Jaccard(a, normalizers.TokenSet{}))
		assert.Equal(t, 0.0, s.Jaccard(normalizers.TokenSet{}, normalizers.TokenSet{}))
	})
}

func TestScorer_SequenceRatio(t *testing.T) {
	s := NewScorer()

	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, s.SequenceRatio("hello world", "hello world"))
	})

	t.Run("case folded before comparison", func(t *testing.T) {
		assert.Equal(t, 1.0, s.SequenceRatio("Hello World", "hello world"))
	})

	t.Run("partial overlap", func(t *testing.T) {
		// longest common block "bcd", M=3, T=8
		assert.InDelta(t, 0.75, s.SequenceRatio("abcd", "bcde"), 1e-9)
	})

	t.Run("recurses around the longest block", func(t *testing.T) {
		// "bab" matches whole of b, M=3, T=7
		assert.InDelta(t, 6.0/7.0, s.SequenceRatio("abab", "bab"), 1e-9)
	})

	t.Run("both empty are identical", func(t *testing.T) {
		assert.Equal(t, 1.0, s.SequenceRatio("", ""))
	})

	t.Run("one empty scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, s.SequenceRatio("abc", ""))
		assert.Equal(t, 0.0, s.SequenceRatio("", "abc"))
	})

	t.Run("disjoint strings score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, s.SequenceRatio("abc", "xyz"))
	})
}

func TestScorer_DateProximity(t *testing.T) {
	s := NewScorer()
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("same day", func(t *testing.T) {
		assert.Equal(t, 1.0, s.DateProximity(base, base, 30))
	})

	t.Run("linear decay", func(t *testing.T) {
		assert.InDelta(t, 0.5, s.DateProximity(base, base.AddDate(0, 0, 15), 30), 1e-9)
		assert.InDelta(t, 0.5, s.DateProximity(base.AddDate(0, 0, 15), base, 30), 1e-9)
		assert.InDelta(t, 29.0/30.0, s.DateProximity(base, base.AddDate(0, 0, 1), 30), 1e-9)
	})

	t.Run("window edge and beyond score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, s.DateProximity(base, base.AddDate(0, 0, 30), 30))
		assert.Equal(t, 0.0, s.DateProximity(base, base.AddDate(0, 0, 45), 30))
	})

	t.Run("zero dates score zero", func(t *testing.T) {
		assert.Equal(t, 0.0, s.DateProximity(time.Time{}, base, 30))
		assert.Equal(t, 0.0, s.DateProximity(base, time.Time{}, 30))
	})
}

func TestScorer_Breakdown(t *testing.T) {
	s := NewScorer()
	cfg := DefaultConfig()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("perfect pair scores the full table", func(t *testing.T) {
		lost := &models.Item{
			Status:          models.ItemStatusLost,
			Title:           "Dell laptop",
			Description:     "Left in a study carrel",
			ColorPrimary:    "Silver",
			Brand:           "Dell",
			ModelOrMarkings: "XPS 13",
			Building:        "Library West",
			RoomOrArea:      "Room 204",
			DateLostOrFound: &date,
		}
		found := *lost
		found.Status = models.ItemStatusFound

		bd := s.Breakdown(lost, &found, cfg)
		assert.Equal(t, 20.0, bd.Building)
		assert.Equal(t, 15.0, bd.Color)
		assert.Equal(t, 25.0, bd.BrandModelTokens)
		assert.Equal(t, 20.0, bd.TitleDescText)
		assert.Equal(t, 10.0, bd.DateProximity)
		assert.Equal(t, 10.0, bd.RoomTokens)
		assert.Equal(t, 100.0, bd.Total)
	})

	t.Run("components round to two decimals", func(t *testing.T) {
		lost := &models.Item{Brand: "Hydro"}
		found := &models.Item{Brand: "Hydro Flask 32"}

		// brand overlap 1/3, 25 * 1/3 = 8.333...
		bd := s.Breakdown(lost, found, cfg)
		assert.Equal(t, 8.33, bd.BrandModelTokens)
	})

	t.Run("better of brand and model carries the points", func(t *testing.T) {
		lost := &models.Item{Brand: "Dell", ModelOrMarkings: "Latitude 5400"}
		found := &models.Item{Brand: "Dell", ModelOrMarkings: "Latitude"}

		// identical brands score 25 even though the models differ
		bd := s.Breakdown(lost, found, cfg)
		assert.Equal(t, 25.0, bd.BrandModelTokens)
	})

	t.Run("better of title and description carries the points", func(t *testing.T) {
		lost := &models.Item{Title: "Silver Dell laptop", Description: "Left in a study carrel"}
		found := &models.Item{Title: "Silver Dell laptop", Description: "Turned in at the front desk"}

		bd := s.Breakdown(lost, found, cfg)
		assert.Equal(t, 20.0, bd.TitleDescText)
	})

	t.Run("blank pair scores only the text baseline", func(t *testing.T) {
		bd := s.Breakdown(&models.Item{}, &models.Item{}, cfg)
		assert.Equal(t, 0.0, bd.Building)
		assert.Equal(t, 0.0, bd.Color)
		assert.Equal(t, 0.0, bd.BrandModelTokens)
		// two empty titles are identical under the sequence ratio
		assert.Equal(t, 20.0, bd.TitleDescText)
		assert.Equal(t, 0.0, bd.DateProximity)
		assert.Equal(t, 0.0, bd.RoomTokens)
		assert.Equal(t, 20.0, bd.Total)
	})

	t.Run("missing dates contribute nothing", func(t *testing.T) {
		lost := &models.Item{DateLostOrFound: &date}
		bd := s.Breakdown(lost, &models.Item{}, cfg)
		assert.Equal(t, 0.0, bd.DateProximity)
	})

	t.Run("total sums the rounded components", func(t *testing.T) {
		lost := &models.Item{
			Title:           "Black Hydro Flask",
			Description:     "Sticker on the lid",
			Brand:           "Hydro Flask",
			ColorPrimary:    "Black",
			Building:        "Union",
			DateLostOrFound: &date,
		}
		found := &models.Item{
			Title:           "Water bottle",
			Description:     "Black bottle with stickers",
			Brand:           "Hydroflask",
			ColorPrimary:    "black",
			Building:        "union",
			DateLostOrFound: &date,
		}

		bd := s.Breakdown(lost, found, cfg)
		sum := bd.Building + bd.Color + bd.BrandModelTokens + bd.TitleDescText + bd.DateProximity + bd.RoomTokens
		assert.InDelta(t, sum, bd.Total, 0.05000001)
	})
}
