package matching

import (
	"time"

	"github.com/campusfound/beacon/pkg/models"
	"github.com/campusfound/beacon/pkg/normalizers"
)

// CandidateFilter narrows the item pool before any scoring happens.
// It is a plain value so SQL-backed and in-memory sources apply the
// same predicate.
type CandidateFilter struct {
	Status       models.ItemStatus // counterpart status of the subject
	CategoryID   string
	Building     string // folded; empty means no building restriction
	DateFrom     time.Time
	DateTo       time.Time
	ApprovedOnly bool
	Limit        int
}

// CandidateFilterFor builds the filter for a subject item. The date window is
// centered on the subject's lost/found date, or on now when the report has no
// date. A subject that names a building restricts candidates to that building.
// Returns false when the subject is not in a seeking status.
func CandidateFilterFor(subject *models.Item, includeUnapproved bool, now time.Time, cfg Config) (CandidateFilter, bool) {
	counterpart := subject.Status.Counterpart()
	if counterpart == "" {
		return CandidateFilter{}, false
	}

	center := now
	if subject.DateLostOrFound != nil {
		center = *subject.DateLostOrFound
	}
	window := time.Duration(cfg.WindowDays) * 24 * time.Hour

	return CandidateFilter{
		Status:       counterpart,
		CategoryID:   subject.CategoryID,
		Building:     normalizers.Fold(subject.Building),
		DateFrom:     center.Add(-window),
		DateTo:       center.Add(window),
		ApprovedOnly: !includeUnapproved,
		Limit:        cfg.MaxCandidates,
	}, true
}

// Matches applies the filter to a single item. Items without a lost/found
// date never pass, matching the SQL range predicate.
func (f CandidateFilter) Matches(it *models.Item) bool {
	if it.Status != f.Status {
		return false
	}
	if it.CategoryID != f.CategoryID {
		return false
	}
	if f.Building != "" && normalizers.Fold(it.Building) != f.Building {
		return false
	}
	if f.ApprovedOnly && !it.Approved {
		return false
	}
	if it.DateLostOrFound == nil {
		return false
	}
	d := *it.DateLostOrFound
	if d.Before(f.DateFrom) || d.After(f.DateTo) {
		return false
	}
	return true
}
