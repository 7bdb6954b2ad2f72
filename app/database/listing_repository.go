package database

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lysyi3m/property-pal/app/listing"
)

// Timestamps are stored as fixed-width UTC text so that ordering by
// created_at sorts chronologically.
const timestampLayout = "2006-01-02 15:04:05.000000"

var _ ListingRepository = (*SQLiteListingRepository)(nil)

// SQLiteListingRepository handles database operations for listings
type SQLiteListingRepository struct {
	db  *DB
	now func() time.Time
}

func NewListingRepository(db *DB) *SQLiteListingRepository {
	return &SQLiteListingRepository{db: db, now: time.Now}
}

// ListListings returns the listings table rows, newest first
func (r *SQLiteListingRepository) ListListings(ctx context.Context) ([]ListingSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, property_url, status, quality, created_at
		FROM listings
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []ListingSummary
	for rows.Next() {
		var summary ListingSummary
		var createdAt string
		if err := rows.Scan(&summary.ID, &summary.PropertyURL, &summary.Status, &summary.Quality, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		if summary.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		listings = append(listings, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing rows: %w", err)
	}

	return listings, nil
}

// GetListing retrieves a listing by ID, returning nil when it does not exist
func (r *SQLiteListingRepository) GetListing(ctx context.Context, id string) (*Listing, error) {
	var l Listing
	var photoURLs, scoreJSON sql.NullString
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, property_url, description, address, price, year_built, area_m2, rooms,
		       garage, type, offer_type, photo_urls, status, quality, notes, score_json,
		       created_at, updated_at
		FROM listings
		WHERE id = ?
	`, id).Scan(
		&l.ID, &l.PropertyURL, &l.Description, &l.Address, &l.Price, &l.YearBuilt, &l.AreaM2, &l.Rooms,
		&l.Garage, &l.Type, &l.OfferType, &photoURLs, &l.Status, &l.Quality, &l.Notes, &scoreJSON,
		&createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	if photoURLs.Valid {
		if err := json.Unmarshal([]byte(photoURLs.String), &l.PhotoURLs); err != nil {
			return nil, fmt.Errorf("failed to decode photo URLs: %w", err)
		}
		if len(l.PhotoURLs) == 0 {
			l.PhotoURLs = nil
		}
	}

	if scoreJSON.Valid {
		l.ScoreJSON = json.RawMessage(scoreJSON.String)
	}

	if l.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}

	return &l, nil
}

// GetListingCount returns the total number of listings
func (r *SQLiteListingRepository) GetListingCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get listing count: %w", err)
	}
	return count, nil
}

// InsertListings stores a whole import batch in one transaction. Either
// every record is inserted or none is.
func (r *SQLiteListingRepository) InsertListings(ctx context.Context, records []listing.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (
			id, property_url, description, address, price, year_built, area_m2, rooms,
			garage, type, offer_type, photo_urls, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := r.timestamp()

	for i, record := range records {
		photoURLs, err := encodePhotoURLs(record.PhotoURLs)
		if err != nil {
			return 0, err
		}

		_, err = stmt.ExecContext(ctx,
			uuid.NewString(), record.PropertyURL, record.Description, record.Address, record.Price,
			record.YearBuilt, record.AreaM2, record.Rooms, record.Garage, record.Type, record.OfferType,
			photoURLs, cmp.Or(record.Status, listing.StatusPending), now, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert listing %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	return len(records), nil
}

// UpdateNotes replaces the reviewer notes of a listing
func (r *SQLiteListingRepository) UpdateNotes(ctx context.Context, id string, notes string) error {
	return r.update(ctx, "save notes", `
		UPDATE listings
		SET notes = ?, updated_at = ?
		WHERE id = ?
	`, notes, r.timestamp(), id)
}

// MarkReviewed marks a listing as done with quality ok and stores the notes
func (r *SQLiteListingRepository) MarkReviewed(ctx context.Context, id string, notes string) error {
	return r.update(ctx, "mark listing reviewed", `
		UPDATE listings
		SET status = ?, quality = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, listing.StatusDone, listing.QualityOK, notes, r.timestamp(), id)
}

// Requeue puts a listing back into the pending state for the external scorer
func (r *SQLiteListingRepository) Requeue(ctx context.Context, id string) error {
	return r.update(ctx, "requeue listing", `
		UPDATE listings
		SET status = ?, updated_at = ?
		WHERE id = ?
	`, listing.StatusPending, r.timestamp(), id)
}

// UpdateScore stores the raw score object written by the external scorer
func (r *SQLiteListingRepository) UpdateScore(ctx context.Context, id string, score json.RawMessage) error {
	return r.update(ctx, "update score", `
		UPDATE listings
		SET score_json = ?, updated_at = ?
		WHERE id = ?
	`, string(score), r.timestamp(), id)
}

func (r *SQLiteListingRepository) update(ctx context.Context, operation, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *SQLiteListingRepository) timestamp() string {
	return r.now().UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func encodePhotoURLs(photoURLs []string) (any, error) {
	if len(photoURLs) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(photoURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photo URLs: %w", err)
	}
	return string(data), nil
}
