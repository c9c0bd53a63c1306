package matching

import (
	"fmt"
	"strings"

	"github.com/campusfound/beacon/pkg/models"
)

// Explain renders a human-readable account of an item pair's score
func (s *Scorer) Explain(a, b *models.Item, cfg Config) string {
	bd := s.Breakdown(a, b, cfg)
	return s.ExplainBreakdown(a, b, bd, cfg.Weights)
}

// ExplainBreakdown renders the explanation for an already computed breakdown.
// Only dimensions that contributed points appear, each with the similarity it
// came from where the dimension is graded rather than exact.
func (s *Scorer) ExplainBreakdown(a, b *models.Item, bd models.ScoreBreakdown, w Weights) string {
	details := make([]string, 0, 7)

	if bd.Building > 0 {
		details = append(details, fmt.Sprintf("Same building (+%.0f)", bd.Building))
	}
	if bd.Color > 0 {
		details = append(details, fmt.Sprintf("Same color (%s) (+%.0f)", a.ColorPrimary, bd.Color))
	}
	if bd.BrandModelTokens > 0 {
		details = append(details, fmt.Sprintf("Brand/model similarity %.2f (+%.1f)", ratio(bd.BrandModelTokens, w.BrandModel), bd.BrandModelTokens))
	}
	if bd.TitleDescText > 0 {
		details = append(details, fmt.Sprintf("Title/description similarity %.2f (+%.1f)", ratio(bd.TitleDescText, w.TitleDesc), bd.TitleDescText))
	}
	if bd.DateProximity > 0 {
		details = append(details, fmt.Sprintf("Dates close (%.2f) (+%.1f)", ratio(bd.DateProximity, w.DateProximity), bd.DateProximity))
	}
	if bd.RoomTokens > 0 {
		details = append(details, fmt.Sprintf("Room/area similarity %.2f (+%.1f)", ratio(bd.RoomTokens, w.Room), bd.RoomTokens))
	}

	details = append(details, fmt.Sprintf("Total ≈ %.1f", bd.Total))

	return strings.Join(details, "; ")
}

// ratio recovers the similarity a point contribution came from
func ratio(points, weight float64) float64 {
	if weight == 0 {
		return 0
	}
	return points / weight
}
