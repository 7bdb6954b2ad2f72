package listing

// Import column names understood by the row mapper.
const (
	ColumnPropertyURL      = "property_url"
	ColumnPropertyFeatures = "property_features"
	ColumnDescription      = "description"
	ColumnAddress          = "address"
	ColumnPrice            = "price"
	ColumnYearBuilt        = "year_built"
	ColumnAreaM2           = "area_m2"
	ColumnRooms            = "rooms"
	ColumnGarage           = "garage"
	ColumnType             = "type"
	ColumnOfferType        = "offer_type"
	ColumnPrimaryImage     = "primary_image"
	ColumnImages           = "images"

	PhotoColumnPrefix = "photo_"
)

// KnownColumns lists every fixed column name the mapper reads.
// Photo columns are matched by PhotoColumnPrefix instead.
var KnownColumns = []string{
	ColumnPropertyURL,
	ColumnPropertyFeatures,
	ColumnDescription,
	ColumnAddress,
	ColumnPrice,
	ColumnYearBuilt,
	ColumnAreaM2,
	ColumnRooms,
	ColumnGarage,
	ColumnType,
	ColumnOfferType,
	ColumnPrimaryImage,
	ColumnImages,
}

const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusReview  = "review"

	QualityOK      = "ok"
	QualityReview  = "review"
	QualityUnknown = "unknown"
)

// Record is a listing candidate produced from one CSV row, ready for insert.
// Optional fields are nil when the source value was blank or unparsable.
type Record struct {
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
	PhotoURLs   []string // nil means no photos
	Status      string
}

// Row is one parsed CSV row. Column order follows the file header;
// cells missing from a short row are absent from the row entirely.
type Row struct {
	columns []string
	values  map[string]string
}

// NewRow builds a row from a header and one record. Extra cells beyond the
// header are ignored, duplicate header names keep the first cell.
func NewRow(header []string, record []string) Row {
	row := Row{
		columns: make([]string, 0, len(header)),
		values:  make(map[string]string, len(header)),
	}

	for i, name := range header {
		if i >= len(record) {
			break
		}
		if _, dup := row.values[name]; dup {
			continue
		}
		row.columns = append(row.columns, name)
		row.values[name] = record[i]
	}

	return row
}

// Get returns the raw cell value and whether the column exists in the row.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Has reports whether the column is present in the row.
func (r Row) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Columns returns the column names in header order.
func (r Row) Columns() []string {
	return r.columns
}
