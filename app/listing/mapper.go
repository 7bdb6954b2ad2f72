package listing

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonPriceChars = regexp.MustCompile(`[^\d.\-]`)
	leadingFloat  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	leadingInt    = regexp.MustCompile(`^[+-]?\d+`)
)

// photoExtractor collects photo URLs for one input shape.
type photoExtractor func(row Row) []string

// MapImportRow converts a parsed CSV row to a listing record. The second
// result is false when the row has no property URL and must be dropped.
// Malformed optional fields become nil and never fail the row.
func MapImportRow(row Row) (Record, bool) {
	url := cell(row, ColumnPropertyURL)
	if url == "" {
		return Record{}, false
	}

	description := optionalText(row, ColumnPropertyFeatures)
	if description == nil {
		description = optionalText(row, ColumnDescription)
	}

	record := Record{
		PropertyURL: url,
		Description: description,
		Address:     optionalText(row, ColumnAddress),
		Price:       parsePrice(cell(row, ColumnPrice)),
		YearBuilt:   optionalText(row, ColumnYearBuilt),
		AreaM2:      parseFloat(cell(row, ColumnAreaM2)),
		Rooms:       parseInt(cell(row, ColumnRooms)),
		Garage:      optionalText(row, ColumnGarage),
		Type:        optionalText(row, ColumnType),
		OfferType:   optionalText(row, ColumnOfferType),
		Status:      StatusPending,
	}

	photos := selectPhotoExtractor(row)(row)
	if len(photos) > 0 {
		record.PhotoURLs = photos
	}

	return record, true
}

// MapImportBatch maps every row and keeps the retained records in input order.
func MapImportBatch(rows []Row) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if record, ok := MapImportRow(row); ok {
			records = append(records, record)
		}
	}
	return records
}

// selectPhotoExtractor picks the photo strategy from the columns present.
// Sources exporting a primary image and a delimited list never use the
// per-column layout.
func selectPhotoExtractor(row Row) photoExtractor {
	if row.Has(ColumnImages) || row.Has(ColumnPrimaryImage) {
		return primaryAndListPhotos
	}
	return prefixedColumnPhotos
}

func prefixedColumnPhotos(row Row) []string {
	var photos []string
	for _, column := range row.Columns() {
		if !strings.HasPrefix(column, PhotoColumnPrefix) {
			continue
		}
		if url := cell(row, column); url != "" {
			photos = append(photos, url)
		}
	}
	return photos
}

func primaryAndListPhotos(row Row) []string {
	var photos []string
	if primary := cell(row, ColumnPrimaryImage); primary != "" {
		photos = append(photos, primary)
	}

	images, _ := row.Get(ColumnImages)
	pieces := strings.FieldsFunc(images, func(r rune) bool {
		return r == ',' || r == ';'
	})
	for _, piece := range pieces {
		if url := strings.TrimSpace(piece); url != "" {
			photos = append(photos, url)
		}
	}
	return photos
}

func cell(row Row, column string) string {
	v, _ := row.Get(column)
	return strings.TrimSpace(v)
}

func optionalText(row Row, column string) *string {
	v := cell(row, column)
	if v == "" {
		return nil
	}
	return &v
}

// parsePrice drops currency symbols and grouping separators before parsing,
// so "€1,234.56" reads as 1234.56.
func parsePrice(raw string) *float64 {
	return parseFloat(nonPriceChars.ReplaceAllString(raw, ""))
}

// parseFloat reads the longest numeric prefix, so "88 m2" reads as 88.
func parseFloat(raw string) *float64 {
	match := leadingFloat.FindString(strings.TrimSpace(raw))
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseInt reads the leading integer, truncating any fraction.
func parseInt(raw string) *int {
	match := leadingInt.FindString(strings.TrimSpace(raw))
	if match == "" {
		return nil
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &v
}
