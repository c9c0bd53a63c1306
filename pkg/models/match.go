package models

import (
	"time"

	"github.com/campusfound/beacon/pkg/database"
)

// MatchStatus is the review state of a proposed match
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "PENDING"   // Proposed, awaiting staff review
	MatchStatusNotified  MatchStatus = "NOTIFIED"  // Owner has been contacted
	MatchStatusConfirmed MatchStatus = "CONFIRMED" // Staff confirmed the pairing
	MatchStatusRejected  MatchStatus = "REJECTED"  // Staff rejected the pairing
)

// Open reports whether the match still awaits a staff decision
func (s MatchStatus) Open() bool {
	return s == MatchStatusPending || s == MatchStatusNotified
}

// Terminal reports whether the match has reached a final decision
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusConfirmed || s == MatchStatusRejected
}

// ScoreBreakdown is the per-dimension point contribution of a match score.
// Component points carry two decimals, the total one.
type ScoreBreakdown struct {
	Building         float64 `json:"building"`
	Color            float64 `json:"color"`
	BrandModelTokens float64 `json:"brand_model_tokens"`
	TitleDescText    float64 `json:"title_desc_text"`
	DateProximity    float64 `json:"date_proximity"`
	RoomTokens       float64 `json:"room_tokens"`
	Total            float64 `json:"total"`
}

// Match pairs a lost item with a found item. The lost item is always the
// first member of the pair regardless of which report triggered the scan.
type Match struct {
	ID             string                         `json:"id" db:"id"`
	LostItemID     string                         `json:"lost_item_id" db:"lost_item_id"`
	FoundItemID    string                         `json:"found_item_id" db:"found_item_id"`
	Score          float64                        `json:"score" db:"score"`
	ScoreBreakdown database.JSONB[ScoreBreakdown] `json:"score_breakdown" db:"score_breakdown"`
	Status         MatchStatus                    `json:"status" db:"status"`
	ResolvedAt     *time.Time                     `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy     *string                        `json:"resolved_by,omitempty" db:"resolved_by"`
	CreatedAt      time.Time                      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time                      `json:"updated_at" db:"updated_at"`
}

// MatchListResponse is the response for listing matches
type MatchListResponse struct {
	Items      []Match `json:"items"`
	TotalCount int     `json:"total_count"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
}

// MatchExplanation is the response for the explain endpoint
type MatchExplanation struct {
	MatchID     string         `json:"match_id"`
	LostItemID  string         `json:"lost_item_id"`
	FoundItemID string         `json:"found_item_id"`
	Score       float64        `json:"score"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Details     string         `json:"details"`
}
