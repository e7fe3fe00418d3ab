package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/addrbook/internal/core"
)

// CSV writes every column, prefixed with a UTF-8 byte-order mark so
// spreadsheet tools pick the right encoding.
type CSV struct{}

func (CSV) Extension() string   { return "csv" }
func (CSV) ContentType() string { return "text/csv; charset=utf-8" }

func (CSV) Write(w io.Writer, records []core.Address) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)

	columns := mustColumns(Columns...)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range records {
		if err := cw.Write(Cells(a, columns)); err != nil {
			return fmt.Errorf("write csv row %d: %w", a.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return bw.Close()
}
