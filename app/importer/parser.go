package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lysyi3m/property-pal/app/listing"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMalformedCSV reports that the uploaded file could not be parsed as a
// whole. Individual rows are never rejected with this error.
var ErrMalformedCSV = errors.New("malformed CSV")

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Run parses a CSV document with a header row into import rows. A BOM
// selects UTF-8 or UTF-16 decoding; without one the input is read as UTF-8.
// The profile may be nil.
func (p *Parser) Run(r io.Reader, profile *Profile) ([]listing.Row, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, readError("failed to read header", err)
	}

	columns := p.normalizeHeader(header, profile)

	var rows []listing.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError("failed to read row", err)
		}
		rows = append(rows, listing.NewRow(columns, record))
	}

	slog.Debug("CSV parsed", "columns", len(columns), "rows", len(rows))

	return rows, nil
}

// readError tells malformed input apart from a failing reader, such as an
// upload that exceeded its size limit.
func readError(msg string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %s: %v", ErrMalformedCSV, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (p *Parser) normalizeHeader(header []string, profile *Profile) []string {
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if profile != nil {
			name = profile.Canonical(name)
		}
		columns[i] = name
	}
	return columns
}
