package item

import (
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	itemrepo "github.com/campusfound/beacon/internal/repositories/item"
	"github.com/campusfound/beacon/pkg/cache"
	"github.com/campusfound/beacon/pkg/matching"
	"github.com/campusfound/beacon/pkg/processor"
	"github.com/campusfound/beacon/pkg/utils"
)

const rescanLockTTL = 15 * time.Minute

// Register registers item routes
func Register(g *echo.Group) {
	g.GET("/:id", GetItem)
	g.GET("/:id/matches", FindItemMatches)
	g.POST("/:id/rescan", RescanItem)
	g.POST("/rescan", RescanAll)
}

// GetItem gets an item by ID
func GetItem(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*itemrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	it, err := repo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, it)
}

// FindMatchesRequest holds the scan tuning knobs for an ad hoc match lookup
type FindMatchesRequest struct {
	IncludeUnapproved bool     `query:"include_unapproved"`
	Threshold         *float64 `query:"threshold" validate:"omitempty,gte=0,lte=100"`
}

// FindItemMatches runs a scan for one item and returns the proposals without
// persisting them. Staff use it to preview what a rescan would produce.
func FindItemMatches(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[FindMatchesRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*itemrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, engine, err := ectoinject.GetContext[*matching.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	it, err := repo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	proposals, err := engine.FindMatches(ctx, it, matching.FindOptions{
		IncludeUnapproved: req.IncludeUnapproved,
		Threshold:         req.Threshold,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, proposals)
}

// RescanItem scans one item and persists any new matches
func RescanItem(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*itemrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, proc, err := ectoinject.GetContext[*processor.Processor](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	it, err := repo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if !it.Status.Seeking() {
		return httperror.NewHTTPError(http.StatusConflict, "item is not open for matching")
	}

	result, err := proc.ScanItem(ctx, it, matching.FindOptions{}, "api")
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// RescanAll sweeps every seeking item. A Redis lock keeps concurrent sweeps
// from piling up; a second request while one is running gets a 409.
func RescanAll(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, cacheClient, err := ectoinject.GetContext[*cache.Client](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, proc, err := ectoinject.GetContext[*processor.Processor](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	lock, err := cacheClient.AcquireRescanLock(ctx, rescanLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return httperror.NewHTTPError(http.StatusConflict, "a rescan is already running")
		}
		return err
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
			if logger != nil {
				logger.WithContext(ctx).WithError(err).Warn("Failed to release rescan lock")
			}
		}
	}()

	result, err := proc.ScanAll(ctx, matching.FindOptions{}, "api")
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
