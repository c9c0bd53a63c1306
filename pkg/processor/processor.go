// Package processor reacts to item events and turns scan results into
// persisted matches. Scans are side-effect bearing; the matching engine
// itself stays pure.
package processor

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/campusfound/beacon/pkg/database"
	"github.com/campusfound/beacon/pkg/kafka"
	"github.com/campusfound/beacon/pkg/matching"
	"github.com/campusfound/beacon/pkg/metrics"
	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/tracing"
)

// ItemStore supplies the items a scan needs
type ItemStore interface {
	Get(ctx context.Context, id string) (*models.Item, error)
	ListSeeking(ctx context.Context, approvedOnly bool) ([]models.Item, error)
}

// MatchStore persists scan results
type MatchStore interface {
	CreateIfAbsent(ctx context.Context, m *models.Match) (bool, error)
}

// MatchEmitter announces persisted matches
type MatchEmitter interface {
	EmitMatchProposed(ctx context.Context, m *models.Match) error
}

// ScanResult summarizes one subject's scan
type ScanResult struct {
	Proposed int // proposals above threshold
	Created  int // matches actually inserted
}

// Processor handles item events and scan orchestration
type Processor struct {
	logger  ectologger.Logger
	items   ItemStore
	matches MatchStore
	engine  *matching.Engine
	emitter MatchEmitter
}

// NewProcessor creates a new item event processor
func NewProcessor(
	logger ectologger.Logger,
	items ItemStore,
	matches MatchStore,
	engine *matching.Engine,
	emitter MatchEmitter,
) *Processor {
	return &Processor{
		logger:  logger,
		items:   items,
		matches: matches,
		engine:  engine,
		emitter: emitter,
	}
}

// HandleItemEvent processes one item event from the intake application.
// Returning an error leaves the message uncommitted for redelivery.
func (p *Processor) HandleItemEvent(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleItemEvent")
	defer span.End()

	evt := msg.ItemEvent
	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": evt.EventType,
		"item_id":    evt.ItemID,
	})

	if !evt.TriggersScan() {
		log.Debug("Event does not trigger a scan")
		metrics.ConsumerMessagesTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	item, err := p.items.Get(ctx, evt.ItemID)
	if err != nil {
		log.WithError(err).Error("Failed to load item for scan")
		metrics.ConsumerMessagesTotal.WithLabelValues("error").Inc()
		return err
	}

	if !item.Approved || !item.Status.Seeking() {
		log.Debug("Item is not scannable, skipping")
		metrics.ConsumerMessagesTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	if _, err := p.ScanItem(ctx, item, matching.FindOptions{}, "event"); err != nil {
		metrics.ConsumerMessagesTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.ConsumerMessagesTotal.WithLabelValues("processed").Inc()
	return nil
}

// ScanItem runs the engine for one subject and persists every proposal that
// does not already have a match. Persistence failures on individual proposals
// are logged and skipped; a later rescan will pick them up. Only candidate
// retrieval failures abort the scan.
func (p *Processor) ScanItem(ctx context.Context, item *models.Item, opts matching.FindOptions, trigger string) (ScanResult, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.ScanItem")
	defer span.End()

	start := time.Now()
	metrics.ScansTotal.WithLabelValues(trigger).Inc()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"item_id":     item.ID,
		"item_status": item.Status,
		"trigger":     trigger,
	})

	proposals, err := p.engine.FindMatches(ctx, item, opts)
	if err != nil {
		log.WithError(err).Error("Scan failed")
		return ScanResult{}, err
	}

	result := ScanResult{Proposed: len(proposals)}
	for i := range proposals {
		prop := &proposals[i]
		lost, found := matching.OrderPair(item, &prop.Candidate)

		m := &models.Match{
			LostItemID:     lost.ID,
			FoundItemID:    found.ID,
			Score:          prop.Score,
			ScoreBreakdown: database.NewJSONB(prop.Breakdown),
			Status:         models.MatchStatusPending,
		}

		created, err := p.matches.CreateIfAbsent(ctx, m)
		if err != nil {
			log.WithError(err).WithFields(map[string]any{
				"lost_item_id":  m.LostItemID,
				"found_item_id": m.FoundItemID,
			}).Error("Failed to persist proposal, continuing scan")
			continue
		}
		if !created {
			metrics.ProposalsDuplicateTotal.Inc()
			continue
		}

		result.Created++
		metrics.ProposalsCreatedTotal.Inc()

		if p.emitter != nil {
			if err := p.emitter.EmitMatchProposed(ctx, m); err != nil {
				log.WithError(err).Error("Failed to emit match.proposed, match is persisted")
			}
		}
	}

	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	log.WithFields(map[string]any{
		"proposed": result.Proposed,
		"created":  result.Created,
	}).Info("Scan complete")

	return result, nil
}

// ScanAll rescans every seeking item. Used by the bulk rescan endpoint and
// the CLI. Per-item failures are counted but do not stop the sweep.
func (p *Processor) ScanAll(ctx context.Context, opts matching.FindOptions, trigger string) (ScanResult, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.ScanAll")
	defer span.End()

	items, err := p.items.ListSeeking(ctx, !opts.IncludeUnapproved)
	if err != nil {
		return ScanResult{}, err
	}

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"item_count": len(items),
		"trigger":    trigger,
	})

	var total ScanResult
	failures := 0
	for i := range items {
		res, err := p.ScanItem(ctx, &items[i], opts, trigger)
		if err != nil {
			failures++
			continue
		}
		total.Proposed += res.Proposed
		total.Created += res.Created
	}

	log.WithFields(map[string]any{
		"proposed": total.Proposed,
		"created":  total.Created,
		"failures": failures,
	}).Info("Bulk rescan complete")

	return total, nil
}
