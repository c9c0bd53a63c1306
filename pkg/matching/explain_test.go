package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusfound/beacon/pkg/models"
)

func TestScorer_Explain(t *testing.T) {
	s := NewScorer()
	cfg := DefaultConfig()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("lists every contributing dimension", func(t *testing.T) {
		lost := &models.Item{
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

		details := s.Explain(lost, &found, cfg)
		assert.Contains(t, details, "Same building (+20)")
		assert.Contains(t, details, "Same color (Silver) (+15)")
		assert.Contains(t, details, "Brand/model similarity 1.00 (+25.0)")
		assert.Contains(t, details, "Title/description similarity 1.00 (+20.0)")
		assert.Contains(t, details, "Dates close (1.00) (+10.0)")
		assert.Contains(t, details, "Room/area similarity 1.00 (+10.0)")
		assert.Contains(t, details, "Total ≈ 100.0")
	})

	t.Run("omits dimensions that scored nothing", func(t *testing.T) {
		lost := &models.Item{Title: "Umbrella", Building: "Union"}
		found := &models.Item{Title: "Scarf", Building: "Chemistry"}

		details := s.Explain(lost, found, cfg)
		assert.NotContains(t, details, "Same building")
		assert.NotContains(t, details, "Same color")
		assert.Contains(t, details, "Total ≈ ")
	})

	t.Run("similarity is recovered from the stored points", func(t *testing.T) {
		bd := models.ScoreBreakdown{BrandModelTokens: 12.5, Total: 12.5}
		details := s.ExplainBreakdown(&models.Item{}, &models.Item{}, bd, cfg.Weights)
		assert.Contains(t, details, "Brand/model similarity 0.50 (+12.5)")
		assert.Contains(t, details, "Total ≈ 12.5")
	})
}
