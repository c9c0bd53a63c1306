// Package matching implements lost/found item matching
package matching

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/tracing"
)

// Weights is the point value of each scoring dimension
type Weights struct {
	Building      float64 // exact building match
	Color         float64 // exact primary color match
	BrandModel    float64 // brand/model token overlap
	TitleDesc     float64 // title/description sequence similarity
	DateProximity float64 // lost/found date closeness
	Room          float64 // room/area token overlap
}

// DefaultWeights returns the stock weight table
func DefaultWeights() Weights {
	return Weights{
		Building:      20,
		Color:         15,
		BrandModel:    25,
		TitleDesc:     20,
		DateProximity: 10,
		Room:          10,
	}
}

// MaxTotal is the score of a perfect match under these weights
func (w Weights) MaxTotal() float64 {
	return w.Building + w.Color + w.BrandModel + w.TitleDesc + w.DateProximity + w.Room
}

// Config contains configuration for the match engine
type Config struct {
	Weights       Weights
	Threshold     float64 // Minimum total score to propose a match (default: 40)
	WindowDays    int     // Date window radius in days (default: 30)
	MaxCandidates int     // Maximum candidates to score per subject (default: 50)
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		Weights:       DefaultWeights(),
		Threshold:     40.0,
		WindowDays:    30,
		MaxCandidates: 50,
	}
}

// ItemSource supplies candidate items for scoring
type ItemSource interface {
	SelectCandidates(ctx context.Context, filter CandidateFilter) ([]models.Item, error)
}

// Proposal is a candidate that scored at or above the threshold
type Proposal struct {
	Candidate models.Item           `json:"candidate"`
	Score     float64               `json:"score"`
	Breakdown models.ScoreBreakdown `json:"breakdown"`
}

// FindOptions tune a single FindMatches call
type FindOptions struct {
	IncludeUnapproved bool
	Threshold         *float64 // nil uses the configured threshold
}

// Engine scores a subject item against its candidate pool
type Engine struct {
	logger ectologger.Logger
	items  ItemSource
	scorer *Scorer
	config Config
	now    func() time.Time
}

// NewEngine creates a new match engine
func NewEngine(logger ectologger.Logger, items ItemSource, config Config) *Engine {
	return &Engine{
		logger: logger,
		items:  items,
		scorer: NewScorer(),
		config: config,
		now:    time.Now,
	}
}

// Config returns the engine's effective configuration
func (e *Engine) Config() Config {
	return e.config
}

// Scorer returns the engine's scorer
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// FindMatches scores every eligible candidate against the subject and returns
// the proposals that clear the threshold. Results keep the candidate pool's
// most-recently-reported-first order. A subject that is not seeking yields an
// empty result, not an error.
func (e *Engine) FindMatches(ctx context.Context, subject *models.Item, opts FindOptions) ([]Proposal, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.FindMatches")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"item_id":     subject.ID,
		"item_status": subject.Status,
		"category_id": subject.CategoryID,
	})

	filter, ok := CandidateFilterFor(subject, opts.IncludeUnapproved, e.now(), e.config)
	if !ok {
		log.Debug("Subject is not seeking, skipping scan")
		return []Proposal{}, nil
	}

	candidates, err := e.items.SelectCandidates(ctx, filter)
	if err != nil {
		return nil, err
	}

	threshold := e.config.Threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	proposals := make([]Proposal, 0, len(candidates))
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.ID == subject.ID {
			continue
		}

		bd := e.scorer.Breakdown(subject, candidate, e.config)
		if bd.Total < threshold {
			continue
		}

		proposals = append(proposals, Proposal{
			Candidate: *candidate,
			Score:     bd.Total,
			Breakdown: bd,
		})
	}

	log.WithFields(map[string]any{
		"candidate_count": len(candidates),
		"proposal_count":  len(proposals),
		"threshold":       threshold,
	}).Debug("Scored candidate pool")

	return proposals, nil
}

// OrderPair returns the items of a match in storage order, lost item first
func OrderPair(a, b *models.Item) (lost, found *models.Item) {
	if a.Status == models.ItemStatusFound {
		return b, a
	}
	return a, b
}
