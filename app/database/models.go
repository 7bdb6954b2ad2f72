package database

import (
	"encoding/json"
	"time"
)

// Listing represents a listing record in the database
type Listing struct {
	ID          string // UUID
	PropertyURL string
	Description *string
	Address     *string
	Price       *float64
	YearBuilt   *string
	AreaM2      *float64
	Rooms       *int
	Garage      *string
	Type        *string
	OfferType   *string
	PhotoURLs   []string // nil when the listing has no photos
	Status      string   // as stored, not normalized
	Quality     string   // as stored, not normalized
	Notes       *string
	ScoreJSON   json.RawMessage // nil until the external scorer writes one
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListingSummary is the subset of columns shown in the listings table
type ListingSummary struct {
	ID          string
	PropertyURL string
	Status      string
	Quality     string
	CreatedAt   time.Time
}
