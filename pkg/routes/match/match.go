package match

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	itemrepo "github.com/campusfound/beacon/internal/repositories/item"
	matchrepo "github.com/campusfound/beacon/internal/repositories/match"
	"github.com/campusfound/beacon/pkg/cache"
	beaconctx "github.com/campusfound/beacon/pkg/context"
	"github.com/campusfound/beacon/pkg/events"
	"github.com/campusfound/beacon/pkg/matching"
	"github.com/campusfound/beacon/pkg/metrics"
	"github.com/campusfound/beacon/pkg/models"
)

const explanationTTL = time.Hour

// Register registers match review routes
func Register(g *echo.Group) {
	g.GET("", ListMatches)
	g.GET("/:id", GetMatch)
	g.GET("/:id/explain", ExplainMatch)
	g.POST("/:id/notify", NotifyMatch)
	g.POST("/:id/confirm", ConfirmMatch)
	g.POST("/:id/reject", RejectMatch)
}

// ListMatches lists matches for review, optionally filtered by item or status
func ListMatches(c echo.Context) error {
	ctx := c.Request().Context()

	status := models.MatchStatus(c.QueryParam("status"))
	itemID := c.QueryParam("item_id")

	ctx, repo, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	var matches []models.Match

	if itemID != "" {
		matches, err = repo.ListByItem(ctx, itemID, status)
		if err != nil {
			return err
		}
	} else {
		// Open matches awaiting a decision
		matches, err = repo.ListOpen(ctx, 100)
		if err != nil {
			return err
		}
	}

	return c.JSON(http.StatusOK, matches)
}

// GetMatch gets a match by ID
func GetMatch(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	m, err := repo.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, m)
}

// ExplainMatch renders the stored breakdown of a match as staff-readable text
func ExplainMatch(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, cacheClient, _ := ectoinject.GetContext[*cache.Client](ctx)
	if cacheClient != nil {
		if cached, err := cacheClient.GetExplanation(ctx, id); err == nil && cached != nil {
			return c.JSON(http.StatusOK, cached)
		}
	}

	ctx, matches, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, items, err := ectoinject.GetContext[*itemrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, engine, err := ectoinject.GetContext[*matching.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	m, err := matches.Get(ctx, id)
	if err != nil {
		return err
	}

	pair, err := items.GetByIDs(ctx, []string{m.LostItemID, m.FoundItemID})
	if err != nil {
		return err
	}
	lost, ok := pair[m.LostItemID]
	if !ok {
		return httperror.NewHTTPError(http.StatusConflict, "lost item no longer exists")
	}
	found, ok := pair[m.FoundItemID]
	if !ok {
		return httperror.NewHTTPError(http.StatusConflict, "found item no longer exists")
	}

	breakdown := m.ScoreBreakdown.GetValue()
	exp := &models.MatchExplanation{
		MatchID:     m.ID,
		LostItemID:  m.LostItemID,
		FoundItemID: m.FoundItemID,
		Score:       m.Score,
		Breakdown:   breakdown,
		Details:     engine.Scorer().ExplainBreakdown(&lost, &found, breakdown, engine.Config().Weights),
	}

	if cacheClient != nil {
		if err := cacheClient.SetExplanation(ctx, exp, explanationTTL); err != nil {
			ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
			if logger != nil {
				logger.WithContext(ctx).WithError(err).Warn("Failed to cache explanation")
			}
		}
	}

	return c.JSON(http.StatusOK, exp)
}

// NotifyMatch marks a match as owner-notified
func NotifyMatch(c echo.Context) error {
	return resolveMatch(c, models.MatchStatusNotified)
}

// ConfirmMatch confirms a match pairing
func ConfirmMatch(c echo.Context) error {
	return resolveMatch(c, models.MatchStatusConfirmed)
}

// RejectMatch rejects a match pairing
func RejectMatch(c echo.Context) error {
	return resolveMatch(c, models.MatchStatusRejected)
}

func resolveMatch(c echo.Context, status models.MatchStatus) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	current, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status.Terminal() {
		return httperror.NewHTTPError(http.StatusConflict, "match is already resolved")
	}

	var resolvedBy *string
	if userID := beaconctx.GetUserID(ctx); userID != "" {
		resolvedBy = &userID
	}

	m, err := repo.UpdateStatus(ctx, id, status, resolvedBy)
	if err != nil {
		return err
	}

	metrics.MatchesResolvedTotal.WithLabelValues(string(status)).Inc()

	ctx, emitter, _ := ectoinject.GetContext[*events.Emitter](ctx)
	if emitter != nil {
		if err := emitter.EmitMatchResolved(ctx, m); err != nil {
			// Resolution is committed, event delivery is best effort here
			ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
			if logger != nil {
				logger.WithContext(ctx).WithError(err).Error("Failed to emit match resolution event")
			}
		}
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"match_id": id,
			"status":   status,
		}).Info("Resolved match")
	}

	return c.JSON(http.StatusOK, m)
}
