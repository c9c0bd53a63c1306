package item

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/campusfound/beacon/pkg/database"
	"github.com/campusfound/beacon/pkg/matching"
	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/tracing"
)

const itemColumns = "id, status, category_id, title, description, color_primary, brand, model_or_markings, building, room_or_area, date_lost_or_found, date_reported, approved, updated_at"

// Repository reads items written by the intake application
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new item repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves an item by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns)
	sb.From("items")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var it models.Item
	if err := r.db.GetContext(ctx, &it, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("item %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get item")
	}

	return &it, nil
}

// GetByIDs retrieves several items at once, keyed by ID
func (r *Repository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return map[string]models.Item{}, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns)
	sb.From("items")
	sb.Where(sb.In("id", idsToAny(ids)...))

	query, args := sb.Build()
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get items by ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get items")
	}

	byID := make(map[string]models.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return byID, nil
}

// SelectCandidates applies the engine's candidate filter in SQL. Items with
// no lost/found date fall outside the range predicate and never return.
func (r *Repository) SelectCandidates(ctx context.Context, filter matching.CandidateFilter) ([]models.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.SelectCandidates")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns)
	sb.From("items")

	where := []string{
		sb.Equal("status", filter.Status),
		sb.Equal("category_id", filter.CategoryID),
		sb.Between("date_lost_or_found", filter.DateFrom, filter.DateTo),
	}
	if filter.Building != "" {
		where = append(where, sb.Equal("LOWER(TRIM(building))", filter.Building))
	}
	if filter.ApprovedOnly {
		where = append(where, sb.Equal("approved", true))
	}
	sb.Where(where...)
	sb.OrderBy("date_reported DESC")
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}

	query, args := sb.Build()
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to select candidate items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to select candidate items")
	}

	return items, nil
}

// ListSeeking retrieves every item still looking for its counterpart.
// Used by bulk rescans.
func (r *Repository) ListSeeking(ctx context.Context, approvedOnly bool) ([]models.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.ListSeeking")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns)
	sb.From("items")

	where := []string{
		sb.In("status", string(models.ItemStatusLost), string(models.ItemStatusFound)),
	}
	if approvedOnly {
		where = append(where, sb.Equal("approved", true))
	}
	sb.Where(where...)
	sb.OrderBy("date_reported DESC")

	query, args := sb.Build()
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list seeking items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list items")
	}

	return items, nil
}

func idsToAny(ids []string) []any {
	result := make([]any, len(ids))
	for i, id := range ids {
		result[i] = id
	}
	return result
}
