package api

import (
	"encoding/json"
	"time"

	"github.com/lysyi3m/property-pal/app/database"
	"github.com/lysyi3m/property-pal/app/importer"
	"github.com/lysyi3m/property-pal/app/listing"
)

type Handler struct {
	listingRepo    database.ListingRepository
	profileCache   *importer.ProfileCache
	parser         *importer.Parser
	maxUploadBytes int64
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type listingRow struct {
	ID             string    `json:"id"`
	PropertyURL    string    `json:"property_url"`
	Status         string    `json:"status"`
	StatusVariant  string    `json:"status_variant"`
	Quality        string    `json:"quality"`
	QualityVariant string    `json:"quality_variant"`
	QualityLabel   string    `json:"quality_label"`
	CreatedAt      time.Time `json:"created_at"`
}

type checklistResponse struct {
	Items   []listing.CheckItem `json:"items"`
	Passed  int                 `json:"passed"`
	Total   int                 `json:"total"`
	HasData bool                `json:"has_data"`
}

type listingDetail struct {
	ID              string            `json:"id"`
	PropertyURL     string            `json:"property_url"`
	Description     *string           `json:"description"`
	DescriptionText string            `json:"description_text"`
	Address         *string           `json:"address"`
	Price           *float64          `json:"price"`
	YearBuilt       *string           `json:"year_built"`
	AreaM2          *float64          `json:"area_m2"`
	Rooms           *int              `json:"rooms"`
	Garage          *string           `json:"garage"`
	Type            *string           `json:"type"`
	OfferType       *string           `json:"offer_type"`
	PhotoURLs       []string          `json:"photo_urls"`
	Status          string            `json:"status"`
	StatusVariant   string            `json:"status_variant"`
	Quality         string            `json:"quality"`
	QualityVariant  string            `json:"quality_variant"`
	QualityLabel    string            `json:"quality_label"`
	Notes           *string           `json:"notes"`
	ScoreJSON       json.RawMessage   `json:"score_json"`
	Checklist       checklistResponse `json:"checklist"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
