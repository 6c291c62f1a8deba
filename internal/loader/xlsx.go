package loader

import (
	"fmt"
	"io"
	"strings"

	"github.com/callboard/backend/internal/types"
	"github.com/xuri/excelize/v2"
)

// readXLSX converts the first sheet of a spreadsheet export into the same
// header/row shape the CSV reader produces. Some dialer suites only export
// xlsx, so the loader accepts both.
func readXLSX(r io.Reader) ([]string, []types.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("spreadsheet has no sheets")
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return nil, nil, fmt.Errorf("empty document: no header row")
	}

	header := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		header[i] = strings.TrimSpace(h)
	}

	var rows []types.RawRecord
	for _, line := range cells[1:] {
		if isBlankCells(line) {
			continue
		}
		row := make(types.RawRecord, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(line) {
				row[h] = line[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func isBlankCells(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
