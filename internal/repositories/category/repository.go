package category

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/campusfound/beacon/pkg/database"
	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/tracing"
)

// Repository reads the fixed category list
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a category by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Category, error) {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "description", "created_at")
	sb.From("categories")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var cat models.Category
	if err := r.db.GetContext(ctx, &cat, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("category %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get category")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get category")
	}

	return &cat, nil
}

// List retrieves all categories, alphabetical
func (r *Repository) List(ctx context.Context) ([]models.Category, error) {
	ctx, span := tracing.StartSpan(ctx, "category.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "description", "created_at")
	sb.From("categories")
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	var cats []models.Category
	if err := r.db.SelectContext(ctx, &cats, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list categories")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list categories")
	}

	return cats, nil
}
