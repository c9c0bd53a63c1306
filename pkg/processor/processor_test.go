package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusfound/beacon/pkg/kafka"
	"github.com/campusfound/beacon/pkg/matching"
	"github.com/campusfound/beacon/pkg/models"
)

type fakeItemStore struct {
	items map[string]models.Item
}

func (f *fakeItemStore) Get(_ context.Context, id string) (*models.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s not found", id)
	}
	return &it, nil
}

func (f *fakeItemStore) ListSeeking(_ context.Context, approvedOnly bool) ([]models.Item, error) {
	out := make([]models.Item, 0, len(f.items))
	for _, it := range f.items {
		if !it.Status.Seeking() {
			continue
		}
		if approvedOnly && !it.Approved {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeItemStore) SelectCandidates(_ context.Context, filter matching.CandidateFilter) ([]models.Item, error) {
	out := make([]models.Item, 0, len(f.items))
	for _, it := range f.items {
		if filter.Matches(&it) {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeMatchStore struct {
	created  map[string]*models.Match // keyed lost|found
	failPair string
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{created: map[string]*models.Match{}}
}

func (f *fakeMatchStore) CreateIfAbsent(_ context.Context, m *models.Match) (bool, error) {
	key := m.LostItemID + "|" + m.FoundItemID
	if key == f.failPair {
		return false, fmt.Errorf("insert failed")
	}
	if _, ok := f.created[key]; ok {
		return false, nil
	}
	f.created[key] = m
	return true, nil
}

type fakeEmitter struct {
	proposed []string
}

func (f *fakeEmitter) EmitMatchProposed(_ context.Context, m *models.Match) error {
	f.proposed = append(f.proposed, m.ID)
	return nil
}

func testItem(id string, status models.ItemStatus, reported time.Time) models.Item {
	date := reported.AddDate(0, 0, -1)
	return models.Item{
		ID:              id,
		Status:          status,
		CategoryID:      "cat-electronics",
		Title:           "Dell laptop",
		Description:     "Silver laptop with stickers",
		ColorPrimary:    "Silver",
		Brand:           "Dell",
		ModelOrMarkings: "XPS 13",
		Building:        "Library West",
		RoomOrArea:      "2nd floor",
		DateLostOrFound: &date,
		DateReported:    reported,
		Approved:        true,
	}
}

func newTestProcessor(store *fakeItemStore, matches *fakeMatchStore, emitter *fakeEmitter) *Processor {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	engine := matching.NewEngine(logger, store, matching.DefaultConfig())
	return NewProcessor(logger, store, matches, engine, emitter)
}

func itemEventMessage(t *testing.T, evt kafka.ItemEvent) *kafka.IncomingMessage {
	t.Helper()
	value, err := json.Marshal(evt)
	require.NoError(t, err)
	msg := &kafka.IncomingMessage{Key: evt.ItemID, Value: value, Headers: map[string]string{}}
	require.NoError(t, msg.ParseItemEvent())
	return msg
}

func TestProcessor_ScanItem(t *testing.T) {
	now := time.Now().UTC()

	t.Run("persists proposals lost item first", func(t *testing.T) {
		lost := testItem("lost-1", models.ItemStatusLost, now)
		found := testItem("found-1", models.ItemStatusFound, now)
		store := &fakeItemStore{items: map[string]models.Item{"lost-1": lost, "found-1": found}}
		matches := newFakeMatchStore()
		emitter := &fakeEmitter{}
		p := newTestProcessor(store, matches, emitter)

		res, err := p.ScanItem(context.Background(), &found, matching.FindOptions{}, "test")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Proposed)
		assert.Equal(t, 1, res.Created)

		m, ok := matches.created["lost-1|found-1"]
		require.True(t, ok, "match should be stored with the lost item first")
		assert.Equal(t, models.MatchStatusPending, m.Status)
		assert.GreaterOrEqual(t, m.Score, 40.0)
		assert.Len(t, emitter.proposed, 1)
	})

	t.Run("existing pair is not recreated", func(t *testing.T) {
		lost := testItem("lost-1", models.ItemStatusLost, now)
		found := testItem("found-1", models.ItemStatusFound, now)
		store := &fakeItemStore{items: map[string]models.Item{"lost-1": lost, "found-1": found}}
		matches := newFakeMatchStore()
		emitter := &fakeEmitter{}
		p := newTestProcessor(store, matches, emitter)

		_, err := p.ScanItem(context.Background(), &lost, matching.FindOptions{}, "test")
		require.NoError(t, err)

		// Scan from the other side of the same pair
		res, err := p.ScanItem(context.Background(), &found, matching.FindOptions{}, "test")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Proposed)
		assert.Equal(t, 0, res.Created)
		assert.Len(t, matches.created, 1)
		assert.Len(t, emitter.proposed, 1)
	})

	t.Run("persistence failure skips the proposal but not the scan", func(t *testing.T) {
		lost1 := testItem("lost-1", models.ItemStatusLost, now)
		lost2 := testItem("lost-2", models.ItemStatusLost, now)
		found := testItem("found-1", models.ItemStatusFound, now)
		store := &fakeItemStore{items: map[string]models.Item{"lost-1": lost1, "lost-2": lost2, "found-1": found}}
		matches := newFakeMatchStore()
		matches.failPair = "lost-1|found-1"
		p := newTestProcessor(store, matches, &fakeEmitter{})

		res, err := p.ScanItem(context.Background(), &found, matching.FindOptions{}, "test")
		require.NoError(t, err)
		assert.Equal(t, 2, res.Proposed)
		assert.Equal(t, 1, res.Created)
		_, ok := matches.created["lost-2|found-1"]
		assert.True(t, ok)
	})
}

func TestProcessor_HandleItemEvent(t *testing.T) {
	now := time.Now().UTC()

	t.Run("approved event triggers a scan", func(t *testing.T) {
		lost := testItem("lost-1", models.ItemStatusLost, now)
		found := testItem("found-1", models.ItemStatusFound, now)
		store := &fakeItemStore{items: map[string]models.Item{"lost-1": lost, "found-1": found}}
		matches := newFakeMatchStore()
		p := newTestProcessor(store, matches, &fakeEmitter{})

		msg := itemEventMessage(t, kafka.ItemEvent{EventType: kafka.ItemEventApproved, ItemID: "lost-1", Approved: true})
		require.NoError(t, p.HandleItemEvent(context.Background(), msg))
		assert.Len(t, matches.created, 1)
	})

	t.Run("claimed event is ignored", func(t *testing.T) {
		lost := testItem("lost-1", models.ItemStatusLost, now)
		store := &fakeItemStore{items: map[string]models.Item{"lost-1": lost}}
		matches := newFakeMatchStore()
		p := newTestProcessor(store, matches, &fakeEmitter{})

		msg := itemEventMessage(t, kafka.ItemEvent{EventType: kafka.ItemEventClaimed, ItemID: "lost-1", Approved: true})
		require.NoError(t, p.HandleItemEvent(context.Background(), msg))
		assert.Empty(t, matches.created)
	})

	t.Run("unapproved item is skipped without error", func(t *testing.T) {
		lost := testItem("lost-1", models.ItemStatusLost, now)
		lost.Approved = false
		store := &fakeItemStore{items: map[string]models.Item{"lost-1": lost}}
		matches := newFakeMatchStore()
		p := newTestProcessor(store, matches, &fakeEmitter{})

		msg := itemEventMessage(t, kafka.ItemEvent{EventType: kafka.ItemEventApproved, ItemID: "lost-1", Approved: true})
		require.NoError(t, p.HandleItemEvent(context.Background(), msg))
		assert.Empty(t, matches.created)
	})

	t.Run("missing item fails the message for redelivery", func(t *testing.T) {
		store := &fakeItemStore{items: map[string]models.Item{}}
		p := newTestProcessor(store, newFakeMatchStore(), &fakeEmitter{})

		msg := itemEventMessage(t, kafka.ItemEvent{EventType: kafka.ItemEventApproved, ItemID: "ghost", Approved: true})
		assert.Error(t, p.HandleItemEvent(context.Background(), msg))
	})
}

func TestProcessor_ScanAll(t *testing.T) {
	now := time.Now().UTC()

	lost := testItem("lost-1", models.ItemStatusLost, now)
	found := testItem("found-1", models.ItemStatusFound, now)
	unrelated := testItem("found-2", models.ItemStatusFound, now)
	unrelated.CategoryID = "cat-clothing"
	unrelated.Title = "Red scarf"
	unrelated.Brand = ""
	unrelated.ModelOrMarkings = ""

	store := &fakeItemStore{items: map[string]models.Item{"lost-1": lost, "found-1": found, "found-2": unrelated}}
	matches := newFakeMatchStore()
	p := newTestProcessor(store, matches, &fakeEmitter{})

	res, err := p.ScanAll(context.Background(), matching.FindOptions{}, "cli")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Len(t, matches.created, 1)
	_, ok := matches.created["lost-1|found-1"]
	assert.True(t, ok)
}
