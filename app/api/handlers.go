package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/property-pal/app/database"
	"github.com/lysyi3m/property-pal/app/importer"
	"github.com/lysyi3m/property-pal/app/listing"
)

func NewHandler(listingRepo database.ListingRepository, profileCache *importer.ProfileCache,
	parser *importer.Parser, maxUploadBytes int64) *Handler {
	return &Handler{
		listingRepo:    listingRepo,
		profileCache:   profileCache,
		parser:         parser,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.listingRepo.GetListingCount(c.Request.Context()); err == nil {
		health["listings"] = count
	}

	health["import_profiles"] = h.profileCache.GetProfileNames()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListListings(c *gin.Context) {
	summaries, err := h.listingRepo.ListListings(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_listings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	rows := make([]listingRow, 0, len(summaries))
	var counts listing.Counts

	for _, s := range summaries {
		counts.Add(s.Status, s.Quality)
		rows = append(rows, listingRow{
			ID:             s.ID,
			PropertyURL:    s.PropertyURL,
			Status:         listing.DashboardStatus(s.Status),
			StatusVariant:  listing.StatusVariant(s.Status),
			Quality:        listing.Normalize(s.Quality),
			QualityVariant: listing.QualityVariant(s.Quality),
			QualityLabel:   listing.QualityLabel(s.Quality),
			CreatedAt:      s.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": rows,
		"total":    len(rows),
		"counts":   counts,
	})
}

func (h *Handler) GetListing(c *gin.Context) {
	id := c.Param("id")

	l, err := h.listingRepo.GetListing(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_listing", "listing", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listing details"})
		return
	}

	if l == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	checklist := listing.ReconcileScore(decodeScore(l))

	c.JSON(http.StatusOK, listingDetail{
		ID:              l.ID,
		PropertyURL:     l.PropertyURL,
		Description:     l.Description,
		DescriptionText: listing.CleanDescription(l.Description),
		Address:         l.Address,
		Price:           l.Price,
		YearBuilt:       l.YearBuilt,
		AreaM2:          l.AreaM2,
		Rooms:           l.Rooms,
		Garage:          l.Garage,
		Type:            l.Type,
		OfferType:       l.OfferType,
		PhotoURLs:       l.PhotoURLs,
		Status:          listing.Normalize(l.Status),
		StatusVariant:   listing.StatusVariant(l.Status),
		Quality:         listing.Normalize(l.Quality),
		QualityVariant:  listing.QualityVariant(l.Quality),
		QualityLabel:    listing.QualityLabel(l.Quality),
		Notes:           l.Notes,
		ScoreJSON:       l.ScoreJSON,
		Checklist: checklistResponse{
			Items:   checklist.Items(),
			Passed:  checklist.Passed(),
			Total:   checklist.Total(),
			HasData: checklist.HasData,
		},
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	})
}

// ImportListings accepts a CSV upload, either as a multipart "file" field or
// as a text/csv request body, and inserts every row that has a property URL.
func (h *Handler) ImportListings(c *gin.Context) {
	ctx := c.Request.Context()
	reviewer := ReviewerFromContext(ctx)

	var profile *importer.Profile
	if name := c.Query("profile"); name != "" {
		p, err := h.profileCache.GetProfile(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown import profile", "details": err.Error()})
			return
		}
		profile = p
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	upload, fileName, err := h.openUpload(c)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}
	defer upload.Close()

	rows, err := h.parser.Run(upload, profile)
	if err != nil {
		slog.Error("CSV parse error", "file", fileName, "reviewer", reviewer, "error", err)
		h.respondUploadError(c, err)
		return
	}

	records := listing.MapImportBatch(rows)

	imported, err := h.listingRepo.InsertListings(ctx, records)
	if err != nil {
		slog.Error("Import error", "file", fileName, "reviewer", reviewer, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed", "details": err.Error()})
		return
	}

	slog.Info("Listings imported",
		"file", fileName,
		"reviewer", reviewer,
		"rows", len(rows),
		"imported", imported)

	c.JSON(http.StatusOK, gin.H{
		"imported": imported,
		"skipped":  len(rows) - len(records),
		"message":  fmt.Sprintf("Successfully imported %d listings.", imported),
	})
}

func (h *Handler) SaveNotes(c *gin.Context) {
	id := c.Param("id")

	notes, ok := bindNotes(c)
	if !ok {
		return
	}

	err := h.listingRepo.UpdateNotes(c.Request.Context(), id, notes)
	if h.respondUpdateError(c, "save_notes", id, err, "Failed to save notes.") {
		return
	}

	slog.Info("Notes saved", "listing", id, "reviewer", ReviewerFromContext(c.Request.Context()))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notes saved successfully."})
}

func (h *Handler) MarkReviewed(c *gin.Context) {
	id := c.Param("id")

	notes, ok := bindNotes(c)
	if !ok {
		return
	}

	err := h.listingRepo.MarkReviewed(c.Request.Context(), id, notes)
	if h.respondUpdateError(c, "mark_reviewed", id, err, "Failed to update listing.") {
		return
	}

	slog.Info("Listing marked as OK", "listing", id, "reviewer", ReviewerFromContext(c.Request.Context()))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Listing marked as OK."})
}

func (h *Handler) Requeue(c *gin.Context) {
	id := c.Param("id")

	err := h.listingRepo.Requeue(c.Request.Context(), id)
	if h.respondUpdateError(c, "requeue", id, err, "Failed to re-analyse listing.") {
		return
	}

	slog.Info("Listing queued for re-analysis", "listing", id, "reviewer", ReviewerFromContext(c.Request.Context()))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Listing queued for re-analysis."})
}

// StoreScore saves the score object produced by the external scorer. The
// body must be a JSON object; its contents are stored as given.
func (h *Handler) StoreScore(c *gin.Context) {
	id := c.Param("id")

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	var score map[string]any
	if err := json.Unmarshal(body, &score); err != nil || score == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Score must be a JSON object"})
		return
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Score must be a JSON object"})
		return
	}

	err = h.listingRepo.UpdateScore(c.Request.Context(), id, compact.Bytes())
	if h.respondUpdateError(c, "update_score", id, err, "Failed to store score.") {
		return
	}

	checklist := listing.ReconcileScore(score)
	slog.Debug("Score stored", "listing", id, "passed", checklist.Passed(), "total", checklist.Total())

	c.JSON(http.StatusOK, gin.H{"success": true, "passed": checklist.Passed(), "total": checklist.Total()})
}

func (h *Handler) openUpload(c *gin.Context) (io.ReadCloser, string, error) {
	switch c.ContentType() {
	case "multipart/form-data":
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, "", err
		}
		if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
			return nil, "", errNotCSV
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, "", err
		}
		return file, fileHeader.Filename, nil
	case "text/csv":
		return c.Request.Body, "request body", nil
	default:
		return nil, "", errNotCSV
	}
}

var errNotCSV = errors.New("upload must be a .csv file or a text/csv body")

func (h *Handler) respondUploadError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":   "File too large",
			"details": fmt.Sprintf("Uploads are limited to %d bytes", h.maxUploadBytes),
		})
	case errors.Is(err, importer.ErrMalformedCSV):
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV parse error", "details": "Failed to parse the CSV file."})
	case errors.Is(err, errNotCSV):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected", "details": "Please select a CSV file to import."})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload", "details": err.Error()})
	}
}

// respondUpdateError writes the error response for a failed listing update
// and reports whether it did.
func (h *Handler) respondUpdateError(c *gin.Context, operation, id string, err error, message string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return true
	}

	slog.Error("Database error", "operation", operation, "listing", id, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	return true
}

// bindNotes reads the optional {"notes": "..."} body. An empty body means
// empty notes.
func bindNotes(c *gin.Context) (string, bool) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return "", false
	}
	return req.Notes, true
}

func decodeScore(l *database.Listing) listing.RawScore {
	if len(l.ScoreJSON) == 0 {
		return nil
	}

	var score listing.RawScore
	if err := json.Unmarshal(l.ScoreJSON, &score); err != nil {
		slog.Warn("Stored score is not a JSON object", "listing", l.ID, "error", err)
		return nil
	}
	return score
}
