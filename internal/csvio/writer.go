package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/callboard/backend/internal/types"
)

// Write serializes records back to CSV text. Columns follow the observed
// load order; encoding/csv supplies the RFC 4180 quoting for values that
// carry commas or quotes.
func Write(w io.Writer, columns []string, records []types.CanonicalRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(columns))
	for i := range records {
		for j, col := range columns {
			row[j] = records[i].Fields[col]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
