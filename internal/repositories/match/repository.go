package match

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/campusfound/beacon/pkg/database"
	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/tracing"
)

const matchColumns = "id, lost_item_id, found_item_id, score, score_breakdown, status, resolved_at, resolved_by, created_at, updated_at"

// Repository handles match persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateIfAbsent inserts a match unless the pair already has one. Returns
// true when a row was inserted. Existing rows keep their score and status.
func (r *Repository) CreateIfAbsent(ctx context.Context, m *models.Match) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.CreateIfAbsent")
	defer span.End()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = models.MatchStatusPending
	}
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt

	sb := database.NewInsertBuilder()
	sb.InsertInto("matches")
	sb.Cols("id", "lost_item_id", "found_item_id", "score", "score_breakdown", "status", "created_at", "updated_at")
	sb.Values(m.ID, m.LostItemID, m.FoundItemID, m.Score, m.ScoreBreakdown, m.Status, m.CreatedAt, m.UpdatedAt)
	sb.OnConflictDoNothing("lost_item_id", "found_item_id")

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"lost_item_id":  m.LostItemID,
			"found_item_id": m.FoundItemID,
		}).Error("Failed to create match")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create match")
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Get retrieves a match by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns)
	sb.From("matches")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var m models.Match
	if err := r.db.GetContext(ctx, &m, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match")
	}

	return &m, nil
}

// GetByPair gets the match for a lost/found pair, nil when none exists
func (r *Repository) GetByPair(ctx context.Context, lostItemID, foundItemID string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.GetByPair")
	defer span.End()

	query := fmt.Sprintf(`
		SELECT %s
		FROM matches
		WHERE lost_item_id = $1 AND found_item_id = $2
		LIMIT 1
	`, matchColumns)

	var m models.Match
	if err := r.db.GetContext(ctx, &m, query, lostItemID, foundItemID); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match by pair")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match")
	}

	return &m, nil
}

// ListOpen retrieves matches awaiting review, best score first
func (r *Repository) ListOpen(ctx context.Context, limit int) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListOpen")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns)
	sb.From("matches")
	sb.Where(sb.In("status", string(models.MatchStatusPending), string(models.MatchStatusNotified)))
	sb.OrderBy("score DESC", "created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list open matches")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list open matches")
	}

	return matches, nil
}

// ListByItem retrieves matches involving an item, optionally filtered by status
func (r *Repository) ListByItem(ctx context.Context, itemID string, status models.MatchStatus) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListByItem")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns)
	sb.From("matches")

	where := []string{
		sb.Or(sb.Equal("lost_item_id", itemID), sb.Equal("found_item_id", itemID)),
	}
	if status != "" {
		where = append(where, sb.Equal("status", status))
	}
	sb.Where(where...)
	sb.OrderBy("score DESC", "created_at DESC")

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matches by item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}

	return matches, nil
}

// List pages through all matches, oldest first. Used by breakdown rebuilds.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.List")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 500
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns)
	sb.From("matches")
	sb.OrderBy("created_at ASC", "id ASC")
	sb.Offset(offset)
	sb.Limit(limit)

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matches")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}

	return matches, nil
}

// UpdateStatus moves a match through its review lifecycle. Terminal statuses
// stamp resolved_at and resolved_by. A match that is already resolved cannot
// be moved again.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status models.MatchStatus, resolvedBy *string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.UpdateStatus")
	defer span.End()

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match status")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("matches")

	assignments := []string{
		sb.Assign("status", status),
		sb.Assign("updated_at", now),
	}
	if status.Terminal() {
		assignments = append(assignments,
			sb.Assign("resolved_at", now),
			sb.Assign("resolved_by", resolvedBy),
		)
	}
	sb.Set(assignments...)
	sb.Where(
		sb.Equal("id", id),
		sb.In("status", string(models.MatchStatusPending), string(models.MatchStatusNotified)),
	)

	query, args := sb.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update match status")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists int
		if err := tx.GetContext(txCtx, &exists, "SELECT 1 FROM matches WHERE id = $1", id); err != nil {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match %s not found", id))
		}
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("match %s is already resolved", id))
	}

	var m models.Match
	if err := tx.GetContext(txCtx, &m, fmt.Sprintf("SELECT %s FROM matches WHERE id = $1", matchColumns), id); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reload match after status update")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match status")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match status")
	}

	return &m, nil
}

// UpdateScore rewrites a match's score and breakdown in place
func (r *Repository) UpdateScore(ctx context.Context, id string, score float64, breakdown models.ScoreBreakdown) error {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.UpdateScore")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("matches")
	sb.Set(
		sb.Assign("score", score),
		sb.Assign("score_breakdown", database.NewJSONB(breakdown)),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update match score")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match score")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match %s not found", id))
	}

	return nil
}

// DeleteByItemID removes all matches involving an item (used when an item is purged)
func (r *Repository) DeleteByItemID(ctx context.Context, itemID string) error {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.DeleteByItemID")
	defer span.End()

	query := `
		DELETE FROM matches
		WHERE lost_item_id = $1 OR found_item_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, itemID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete matches by item_id")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete matches")
	}

	return nil
}
