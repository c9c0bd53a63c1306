package matching

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusfound/beacon/pkg/models"
)

// memorySource serves candidates from a slice using the shared filter predicate
type memorySource struct {
	items []models.Item
}

func (m *memorySource) SelectCandidates(_ context.Context, filter CandidateFilter) ([]models.Item, error) {
	out := make([]models.Item, 0, len(m.items))
	for _, it := range m.items {
		if filter.Matches(&it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateReported.After(out[j].DateReported)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testEngine(items []models.Item, now time.Time) *Engine {
	e := NewEngine(testLogger(), &memorySource{items: items}, DefaultConfig())
	e.now = func() time.Time { return now }
	return e
}

func laptopItem(id string, status models.ItemStatus, date, reported time.Time) models.Item {
	return models.Item{
		ID:              id,
		Status:          status,
		CategoryID:      "cat-electronics",
		Title:           "Dell laptop",
		Description:     "Silver laptop with stickers on the lid",
		ColorPrimary:    "Silver",
		Brand:           "Dell",
		ModelOrMarkings: "XPS 13",
		Building:        "Library West",
		RoomOrArea:      "2nd floor study area",
		DateLostOrFound: &date,
		DateReported:    reported,
		Approved:        true,
	}
}

func TestEngine_FindMatches(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	date := now.AddDate(0, 0, -2)
	subject := laptopItem("lost-1", models.ItemStatusLost, date, now.AddDate(0, 0, -1))

	t.Run("proposes a strong counterpart", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		require.Len(t, proposals, 1)
		assert.Equal(t, "found-1", proposals[0].Candidate.ID)
		assert.GreaterOrEqual(t, proposals[0].Score, 40.0)
		assert.Equal(t, 20.0, proposals[0].Breakdown.Building)
		assert.Equal(t, 15.0, proposals[0].Breakdown.Color)
		assert.Equal(t, proposals[0].Breakdown.Total, proposals[0].Score)
	})

	t.Run("skips candidates in another category", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		found.CategoryID = "cat-clothing"
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, proposals)
	})

	t.Run("skips candidates in another building", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		found.Building = "Criss Library"
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, proposals)

		// still excluded when unapproved items are pulled in
		proposals, err = e.FindMatches(context.Background(), &subject, FindOptions{IncludeUnapproved: true})
		require.NoError(t, err)
		assert.Empty(t, proposals)
	})

	t.Run("building comparison folds case", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		found.Building = "LIBRARY WEST"
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		assert.Len(t, proposals, 1)
	})

	t.Run("subject without a building accepts any building", func(t *testing.T) {
		noBuilding := subject
		noBuilding.Building = ""
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		found.Building = "Criss Library"
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &noBuilding, FindOptions{})
		require.NoError(t, err)
		assert.Len(t, proposals, 1)
	})

	t.Run("skips same-status candidates", func(t *testing.T) {
		other := laptopItem("lost-2", models.ItemStatusLost, now, now)
		e := testEngine([]models.Item{other}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, proposals)
	})

	t.Run("skips claimed candidates", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusClaimed, now, now)
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, proposals)
	})

	t.Run("skips unapproved candidates by default", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		found.Approved = false
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, proposals)

		proposals, err = e.FindMatches(context.Background(), &subject, FindOptions{IncludeUnapproved: true})
		require.NoError(t, err)
		assert.Len(t, proposals, 1)
	})

	t.Run("skips candidates outside the date window", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusFound, date.AddDate(0, 0, -40), now)
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, proposals)
	})

	t.Run("skips candidates without a date", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		found.DateLostOrFound = nil
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, proposals)
	})

	t.Run("windows on now when the subject has no date", func(t *testing.T) {
		noDate := subject
		noDate.DateLostOrFound = nil
		found := laptopItem("found-1", models.ItemStatusFound, now.AddDate(0, 0, -5), now)
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &noDate, FindOptions{})
		require.NoError(t, err)
		assert.Len(t, proposals, 1)
	})

	t.Run("custom threshold filters weak pairs", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		e := testEngine([]models.Item{found}, now)

		high := 99.5
		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{Threshold: &high})
		require.NoError(t, err)
		assert.Empty(t, proposals)
	})

	t.Run("explicit zero threshold keeps every scored candidate", func(t *testing.T) {
		weak := laptopItem("found-weak", models.ItemStatusFound, now, now)
		weak.Title = "Graphing calculator"
		weak.Description = ""
		weak.ColorPrimary = "black"
		weak.Brand = "Texas Instruments"
		weak.ModelOrMarkings = "TI-84"
		weak.RoomOrArea = ""
		e := testEngine([]models.Item{weak}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, proposals)

		zero := 0.0
		proposals, err = e.FindMatches(context.Background(), &subject, FindOptions{Threshold: &zero})
		require.NoError(t, err)
		assert.Len(t, proposals, 1)
	})

	t.Run("orders proposals by recency of report", func(t *testing.T) {
		older := laptopItem("found-old", models.ItemStatusFound, now, now.AddDate(0, 0, -3))
		newer := laptopItem("found-new", models.ItemStatusFound, now, now)
		e := testEngine([]models.Item{older, newer}, now)

		proposals, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)
		require.Len(t, proposals, 2)
		assert.Equal(t, "found-new", proposals[0].Candidate.ID)
		assert.Equal(t, "found-old", proposals[1].Candidate.ID)
	})

	t.Run("non-seeking subject yields no proposals", func(t *testing.T) {
		claimed := subject
		claimed.Status = models.ItemStatusClaimed
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		e := testEngine([]models.Item{found}, now)

		proposals, err := e.FindMatches(context.Background(), &claimed, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, proposals)
	})

	t.Run("scan is symmetric for the pair", func(t *testing.T) {
		found := laptopItem("found-1", models.ItemStatusFound, now, now)
		e := testEngine([]models.Item{found}, now)
		fromLost, err := e.FindMatches(context.Background(), &subject, FindOptions{})
		require.NoError(t, err)

		e2 := testEngine([]models.Item{subject}, now)
		fromFound, err := e2.FindMatches(context.Background(), &found, FindOptions{})
		require.NoError(t, err)

		require.Len(t, fromLost, 1)
		require.Len(t, fromFound, 1)
		assert.Equal(t, fromLost[0].Score, fromFound[0].Score)
		assert.Equal(t, fromLost[0].Breakdown, fromFound[0].Breakdown)
	})
}

func TestOrderPair(t *testing.T) {
	lost := models.Item{ID: "lost-1", Status: models.ItemStatusLost}
	found := models.Item{ID: "found-1", Status: models.ItemStatusFound}

	l, f := OrderPair(&lost, &found)
	assert.Equal(t, "lost-1", l.ID)
	assert.Equal(t, "found-1", f.ID)

	l, f = OrderPair(&found, &lost)
	assert.Equal(t, "lost-1", l.ID)
	assert.Equal(t, "found-1", f.ID)
}

func TestCandidateFilterFor(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()

	t.Run("centers the window on the subject date", func(t *testing.T) {
		date := now.AddDate(0, 0, -10)
		subject := models.Item{Status: models.ItemStatusLost, CategoryID: "cat-1", DateLostOrFound: &date}

		filter, ok := CandidateFilterFor(&subject, false, now, cfg)
		require.True(t, ok)
		assert.Equal(t, models.ItemStatusFound, filter.Status)
		assert.Equal(t, "cat-1", filter.CategoryID)
		assert.True(t, filter.ApprovedOnly)
		assert.Equal(t, date.AddDate(0, 0, -30), filter.DateFrom)
		assert.Equal(t, date.AddDate(0, 0, 30), filter.DateTo)
		assert.Equal(t, cfg.MaxCandidates, filter.Limit)
	})

	t.Run("folds the subject building into the filter", func(t *testing.T) {
		subject := models.Item{Status: models.ItemStatusLost, CategoryID: "cat-1", Building: "  Mammel Hall "}
		filter, ok := CandidateFilterFor(&subject, false, now, cfg)
		require.True(t, ok)
		assert.Equal(t, "mammel hall", filter.Building)
	})

	t.Run("no subject building means no building restriction", func(t *testing.T) {
		subject := models.Item{Status: models.ItemStatusLost, CategoryID: "cat-1"}
		filter, ok := CandidateFilterFor(&subject, false, now, cfg)
		require.True(t, ok)
		assert.Empty(t, filter.Building)
	})

	t.Run("resolved subjects build no filter", func(t *testing.T) {
		subject := models.Item{Status: models.ItemStatusClaimed}
		_, ok := CandidateFilterFor(&subject, false, now, cfg)
		assert.False(t, ok)
	})
}
