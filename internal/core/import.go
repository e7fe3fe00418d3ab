package core

// import.go parses an uploaded address table.
//
// Parsing is split from persistence: Normalize turns bytes into validated
// payloads and row errors without touching the store, and Service.Import
// forwards the payloads one by one. Structural problems (encoding, empty
// file, header) fail the whole call before anything is written.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxDisplayedErrors is how many row errors an ImportSummary carries.
const MaxDisplayedErrors = 10

// ErrStructural matches every error that rejects an upload as a whole.
var ErrStructural = errors.New("invalid import file")

type structuralError string

func (e structuralError) Error() string        { return string(e) }
func (e structuralError) Is(target error) bool { return target == ErrStructural }

var (
	ErrNotCSV        error = structuralError("invalid csv: expected a .csv file")
	ErrEncoding      error = structuralError("encoding error: file is not valid UTF-8")
	ErrEmptyFile     error = structuralError("file is empty")
	ErrMissingHeader error = structuralError("invalid csv: header row not found")
)

// csvContentTypes are the media types browsers send for CSV uploads.
var csvContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"text/x-csv":               true,
	"application/vnd.ms-excel": true,
	"text/plain":               true,
}

// IsCSVUpload reports whether the file name or content type indicates CSV.
func IsCSVUpload(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return csvContentTypes[strings.ToLower(mt)]
}

// RowError is a rejected data row. Row is 1-indexed with the header as row 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportRecord is a validated row awaiting insertion.
type ImportRecord struct {
	Row     int
	Address NewAddress
}

// ParsedImport is the store-independent result of parsing an upload.
type ParsedImport struct {
	Delimiter       rune
	Headers         []string // normalised, in file order
	OptionalColumns bool     // description column present
	Records         []ImportRecord
	Errors          []RowError
	TotalRows       int
}

// ImportSummary reports the outcome of one import call.
type ImportSummary struct {
	ImportID               string     `json:"import_id,omitempty"`
	ImportedCount          int        `json:"imported_count"`
	TotalRows              int        `json:"total_rows"`
	Errors                 []RowError `json:"errors"`
	ErrorCount             int        `json:"error_count"`
	HasMoreErrors          bool       `json:"has_more_errors"`
	DetectedDelimiter      string     `json:"detected_delimiter"`
	OptionalColumnsPresent bool       `json:"optional_columns_present"`
}

// NewImportSummary builds a summary, keeping the first MaxDisplayedErrors
// errors. errs must already be ordered by row.
func NewImportSummary(p *ParsedImport, imported int, errs []RowError) *ImportSummary {
	shown := errs
	if len(shown) > MaxDisplayedErrors {
		shown = shown[:MaxDisplayedErrors]
	}
	if shown == nil {
		shown = []RowError{}
	}
	return &ImportSummary{
		ImportedCount:          imported,
		TotalRows:              p.TotalRows,
		Errors:                 shown,
		ErrorCount:             len(errs),
		HasMoreErrors:          len(errs) > MaxDisplayedErrors,
		DetectedDelimiter:      string(p.Delimiter),
		OptionalColumnsPresent: p.OptionalColumns,
	}
}

// DecodeUpload validates the encoding, strips a leading byte-order mark and
// rejects blank content.
func DecodeUpload(data []byte) ([]byte, error) {
	if !utf8.Valid(data) {
		return nil, ErrEncoding
	}
	decoded, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(bytes.TrimSpace(decoded)) == 0 {
		return nil, ErrEmptyFile
	}
	return decoded, nil
}

// Normalize parses an uploaded table into validated payloads and row errors.
func Normalize(data []byte) (*ParsedImport, error) {
	text, err := DecodeUpload(data)
	if err != nil {
		return nil, err
	}

	delim := DetectDelimiter(text)
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("%w: %v", ErrMissingHeader, err)
	}

	idx, names := MakeHeaderIndex(header)
	if err := ValidateHeaders(idx); err != nil {
		return nil, err
	}

	parsed := &ParsedImport{
		Delimiter:       delim,
		Headers:         names,
		OptionalColumns: idx.Has("description"),
	}

	rowNum := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			parsed.Errors = append(parsed.Errors, RowError{Row: rowNum, Message: fmt.Sprintf("unreadable row: %v", err)})
			continue
		}

		if isEmptyRow(row) {
			continue
		}

		rec, err := BuildAddress(row, idx)
		if err != nil {
			parsed.Errors = append(parsed.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		parsed.Records = append(parsed.Records, ImportRecord{Row: rowNum, Address: rec})
	}
	parsed.TotalRows = rowNum - 1

	return parsed, nil
}
