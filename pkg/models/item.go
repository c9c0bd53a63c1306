package models

import (
	"time"
)

// ItemStatus is the lifecycle state of a reported item
type ItemStatus string

const (
	ItemStatusLost     ItemStatus = "LOST"     // Reported missing by its owner
	ItemStatusFound    ItemStatus = "FOUND"    // Turned in to a front desk
	ItemStatusClaimed  ItemStatus = "CLAIMED"  // Returned to the owner
	ItemStatusArchived ItemStatus = "ARCHIVED" // Aged out of the active pool
)

// Seeking reports whether items in this status still participate in matching
func (s ItemStatus) Seeking() bool {
	return s == ItemStatusLost || s == ItemStatusFound
}

// Counterpart returns the status a candidate must have to pair with this one
func (s ItemStatus) Counterpart() ItemStatus {
	switch s {
	case ItemStatusLost:
		return ItemStatusFound
	case ItemStatusFound:
		return ItemStatusLost
	default:
		return ""
	}
}

// Category is a fixed item category (electronics, clothing, ...)
type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Item is a lost or found report as written by the intake application.
// Field order matches schema: id, status, category_id, title, description, ...
// Beacon reads this table but never writes it.
type Item struct {
	ID              string     `json:"id" db:"id"`
	Status          ItemStatus `json:"status" db:"status"`
	CategoryID      string     `json:"category_id" db:"category_id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	ColorPrimary    string     `json:"color_primary" db:"color_primary"`
	Brand           string     `json:"brand" db:"brand"`
	ModelOrMarkings string     `json:"model_or_markings" db:"model_or_markings"`
	Building        string     `json:"building" db:"building"`
	RoomOrArea      string     `json:"room_or_area" db:"room_or_area"`
	DateLostOrFound *time.Time `json:"date_lost_or_found,omitempty" db:"date_lost_or_found"`
	DateReported    time.Time  `json:"date_reported" db:"date_reported"`
	Approved        bool       `json:"approved" db:"approved"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// ItemListResponse is the response for listing items
type ItemListResponse struct {
	Items      []Item `json:"items"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}
