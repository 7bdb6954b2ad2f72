package database

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lysyi3m/property-pal/app/listing"
)

// ErrNotFound is returned by updates addressing a listing that does not exist.
var ErrNotFound = errors.New("listing not found")

type ListingRepository interface {
	ListListings(ctx context.Context) ([]ListingSummary, error)
	GetListing(ctx context.Context, id string) (*Listing, error)
	GetListingCount(ctx context.Context) (int, error)

	InsertListings(ctx context.Context, records []listing.Record) (int, error)

	UpdateNotes(ctx context.Context, id string, notes string) error
	MarkReviewed(ctx context.Context, id string, notes string) error
	Requeue(ctx context.Context, id string) error
	UpdateScore(ctx context.Context, id string, score json.RawMessage) error
}
