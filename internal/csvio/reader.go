// Package csvio reads heterogeneous CSV exports into string-keyed rows and
// serializes filtered records back out.
package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/callboard/backend/internal/types"
)

var candidateDelimiters = []rune{',', '\t', ';', '|'}

// sniffDelimiter picks the candidate occurring most often outside quotes in
// the header line. Comma wins ties, matching its position in the list.
func sniffDelimiter(headerLine string) rune {
	best := ','
	bestCount := 0
	for _, d := range candidateDelimiters {
		count := 0
		inQuotes := false
		for _, r := range headerLine {
			switch {
			case r == '"':
				inQuotes = !inQuotes
			case r == d && !inQuotes:
				count++
			}
		}
		if count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}

// Read tokenizes one CSV document: BOM tolerated, delimiter auto-detected,
// blank lines skipped, header row required. Rows come back as string-keyed
// maps in file order; ragged rows keep whatever columns they have.
func Read(r io.Reader) ([]string, []types.RawRecord, error) {
	br := bufio.NewReader(r)

	// Strip a UTF-8 byte order mark if present.
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	headerLine, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("failed to read header line: %w", err)
	}
	// An odd quote count means a header cell contains a quoted newline; pull
	// lines until the quote closes so sniffing sees the whole logical row.
	for err == nil && strings.Count(headerLine, `"`)%2 == 1 {
		var more string
		more, err = br.ReadString('\n')
		headerLine += more
		if err != nil && err != io.EOF {
			return nil, nil, fmt.Errorf("failed to read header line: %w", err)
		}
	}
	if strings.TrimSpace(headerLine) == "" {
		return nil, nil, fmt.Errorf("empty document: no header row")
	}

	delim := sniffDelimiter(headerLine)

	cr := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse header row: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []types.RawRecord
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse row %d: %w", len(rows)+2, err)
		}
		if isBlankLine(fields) {
			continue
		}
		row := make(types.RawRecord, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(fields) {
				row[h] = fields[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func isBlankLine(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
