package integration

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusfound/beacon/pkg/kafka"
	"github.com/campusfound/beacon/pkg/matching"
	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/processor"
)

type memoryStore struct {
	items   map[string]*models.Item
	matches map[string]*models.Match
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		items:   make(map[string]*models.Item),
		matches: make(map[string]*models.Match),
	}
}

func (s *memoryStore) add(it *models.Item) {
	s.items[it.ID] = it
}

func (s *memoryStore) Get(ctx context.Context, id string) (*models.Item, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, assert.AnError
	}
	return it, nil
}

func (s *memoryStore) ListSeeking(ctx context.Context, approvedOnly bool) ([]models.Item, error) {
	var out []models.Item
	for _, it := range s.items {
		if !it.Status.Seeking() {
			continue
		}
		if approvedOnly && !it.Approved {
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

func (s *memoryStore) SelectCandidates(ctx context.Context, filter matching.CandidateFilter) ([]models.Item, error) {
	var out []models.Item
	for _, it := range s.items {
		if filter.Matches(it) {
			out = append(out, *it)
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

func (s *memoryStore) CreateIfAbsent(ctx context.Context, m *models.Match) (bool, error) {
	key := m.LostItemID + "|" + m.FoundItemID
	if _, ok := s.matches[key]; ok {
		return false, nil
	}
	m.ID = uuid.New().String()
	s.matches[key] = m
	return true, nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func date(daysAgo int) *time.Time {
	d := time.Now().AddDate(0, 0, -daysAgo).Truncate(time.Hour)
	return &d
}

func campusItem(status models.ItemStatus, category string, daysAgo int, mutate func(*models.Item)) *models.Item {
	it := &models.Item{
		ID:              uuid.New().String(),
		Status:          status,
		CategoryID:      category,
		Approved:        true,
		DateLostOrFound: date(daysAgo),
		DateReported:    time.Now().AddDate(0, 0, -daysAgo),
	}
	if mutate != nil {
		mutate(it)
	}
	return it
}

func TestLostLaptopFlow(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	electronics := uuid.New().String()
	apparel := uuid.New().String()

	lost := campusItem(models.ItemStatusLost, electronics, 3, func(it *models.Item) {
		it.Title = "Dell laptop"
		it.Description = "Dell XPS 13 silver laptop with stickers"
		it.ColorPrimary = "silver"
		it.Brand = "Dell"
		it.ModelOrMarkings = "XPS 13"
		it.Building = "Library"
		it.RoomOrArea = "Reading Room 2"
	})
	store.add(lost)

	// Strong counterpart, same building and brand
	found := campusItem(models.ItemStatusFound, electronics, 1, func(it *models.Item) {
		it.Title = "Silver Dell laptop"
		it.Description = "Found a silver Dell XPS 13 laptop near the study desks"
		it.ColorPrimary = "silver"
		it.Brand = "Dell"
		it.ModelOrMarkings = "XPS 13"
		it.Building = "Library"
		it.RoomOrArea = "Reading Room 2"
	})
	store.add(found)

	// Wrong category, never considered
	store.add(campusItem(models.ItemStatusFound, apparel, 1, func(it *models.Item) {
		it.Title = "Silver jacket"
		it.ColorPrimary = "silver"
		it.Building = "Library"
	}))

	// Right category and building but nothing else in common,
	// should stay below threshold
	store.add(campusItem(models.ItemStatusFound, electronics, 20, func(it *models.Item) {
		it.Title = "Black calculator"
		it.Description = "TI-84 graphing calculator"
		it.ColorPrimary = "black"
		it.Brand = "Texas Instruments"
		it.Building = "Library"
	}))

	// Near-identical laptop in another building, never a candidate
	elsewhere := campusItem(models.ItemStatusFound, electronics, 1, func(it *models.Item) {
		it.Title = "Silver Dell laptop"
		it.Description = "Found a silver Dell XPS 13 laptop"
		it.ColorPrimary = "silver"
		it.Brand = "Dell"
		it.ModelOrMarkings = "XPS 13"
		it.Building = "Engineering Hall"
		it.RoomOrArea = "Reading Room 2"
	})
	store.add(elsewhere)

	engine := matching.NewEngine(noopLogger(), store, matching.DefaultConfig())
	proc := processor.NewProcessor(noopLogger(), store, store, engine, nil)

	t.Run("EventDrivenScan", func(t *testing.T) {
		msg := &kafka.IncomingMessage{
			ItemEvent: &kafka.ItemEvent{
				EventType: kafka.ItemEventApproved,
				ItemID:    lost.ID,
				Approved:  true,
			},
		}
		require.NoError(t, proc.HandleItemEvent(ctx, msg))

		require.Len(t, store.matches, 1)
		for _, m := range store.matches {
			assert.Equal(t, lost.ID, m.LostItemID)
			assert.Equal(t, found.ID, m.FoundItemID)
			assert.Equal(t, models.MatchStatusPending, m.Status)
			assert.GreaterOrEqual(t, m.Score, 40.0)

			breakdown := m.ScoreBreakdown.GetValue()
			assert.Equal(t, 20.0, breakdown.Building)
			assert.Equal(t, 15.0, breakdown.Color)
			assert.Equal(t, 25.0, breakdown.BrandModelTokens)
			assert.Greater(t, breakdown.TitleDescText, 0.0)
			assert.Greater(t, breakdown.DateProximity, 0.0)
			assert.Equal(t, breakdown.Total, m.Score)
		}
	})

	t.Run("ScanFromOtherSideIsIdempotent", func(t *testing.T) {
		result, err := proc.ScanItem(ctx, found, matching.FindOptions{}, "test")
		require.NoError(t, err)

		assert.Equal(t, 1, result.Proposed)
		assert.Equal(t, 0, result.Created)
		assert.Len(t, store.matches, 1)
	})

	t.Run("OtherBuildingNeverProposed", func(t *testing.T) {
		proposals, err := engine.FindMatches(ctx, lost, matching.FindOptions{IncludeUnapproved: true})
		require.NoError(t, err)
		require.Len(t, proposals, 1)
		assert.Equal(t, found.ID, proposals[0].Candidate.ID)
	})

	t.Run("ExplanationNamesContributingDimensions", func(t *testing.T) {
		for _, m := range store.matches {
			breakdown := m.ScoreBreakdown.GetValue()
			details := engine.Scorer().ExplainBreakdown(lost, found, breakdown, engine.Config().Weights)

			assert.Contains(t, details, "Same building")
			assert.Contains(t, details, "Same color (silver)")
			assert.Contains(t, details, "Brand/model similarity")
			assert.Contains(t, details, "Room/area similarity")
			assert.Contains(t, details, "Total")
			assert.Greater(t, breakdown.RoomTokens, 0.0)
		}
	})

	t.Run("BulkRescanFindsNothingNew", func(t *testing.T) {
		total, err := proc.ScanAll(ctx, matching.FindOptions{}, "test")
		require.NoError(t, err)

		assert.Equal(t, 0, total.Created)
		assert.Len(t, store.matches, 1)
	})
}

func TestUnapprovedItemsExcludedUntilRequested(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	category := uuid.New().String()

	lost := campusItem(models.ItemStatusLost, category, 2, func(it *models.Item) {
		it.Title = "Blue hydro flask"
		it.ColorPrimary = "blue"
		it.Brand = "Hydro Flask"
		it.Building = "Science Hall"
	})
	store.add(lost)

	pending := campusItem(models.ItemStatusFound, category, 1, func(it *models.Item) {
		it.Title = "Blue hydro flask"
		it.ColorPrimary = "blue"
		it.Brand = "Hydro Flask"
		it.Building = "Science Hall"
		it.Approved = false
	})
	store.add(pending)

	engine := matching.NewEngine(noopLogger(), store, matching.DefaultConfig())

	proposals, err := engine.FindMatches(ctx, lost, matching.FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, proposals)

	proposals, err = engine.FindMatches(ctx, lost, matching.FindOptions{IncludeUnapproved: true})
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, pending.ID, proposals[0].Candidate.ID)
}

func TestResolutionLifecycle(t *testing.T) {
	t.Run("OpenStatuses", func(t *testing.T) {
		assert.True(t, models.MatchStatusPending.Open())
		assert.True(t, models.MatchStatusNotified.Open())
		assert.False(t, models.MatchStatusConfirmed.Open())
		assert.False(t, models.MatchStatusRejected.Open())
	})

	t.Run("TerminalStatuses", func(t *testing.T) {
		assert.False(t, models.MatchStatusPending.Terminal())
		assert.False(t, models.MatchStatusNotified.Terminal())
		assert.True(t, models.MatchStatusConfirmed.Terminal())
		assert.True(t, models.MatchStatusRejected.Terminal())
	})
}
