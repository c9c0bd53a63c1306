package category

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	categoryrepo "github.com/campusfound/beacon/internal/repositories/category"
)

// Register registers category routes
func Register(g *echo.Group) {
	g.GET("", ListCategories)
	g.GET("/:id", GetCategory)
}

// ListCategories lists all item categories
func ListCategories(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*categoryrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	categories, err := repo.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, categories)
}

// GetCategory gets a category by ID
func GetCategory(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*categoryrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	cat, err := repo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cat)
}
