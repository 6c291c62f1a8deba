package csvio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/callboard/backend/internal/types"
)

func TestReadCommaDelimited(t *testing.T) {
	doc := "Call ID,Agent,Status\nc-1,Mara,Answered\n\nc-2,Jonas,\"Abandoned, queue\"\n"

	header, rows, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(header) != 3 || header[0] != "Call ID" {
		t.Errorf("unexpected header: %v", header)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (blank line skipped), got %d", len(rows))
	}
	if rows[1]["Status"] != "Abandoned, queue" {
		t.Errorf("quoted value mangled: %q", rows[1]["Status"])
	}
}

func TestReadDelimiterSniffing(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"semicolon", "A;B\n1;2\n"},
		{"tab", "A\tB\n1\t2\n"},
		{"pipe", "A|B\n1|2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rows, err := Read(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rows) != 1 || rows[0]["A"] != "1" || rows[0]["B"] != "2" {
				t.Errorf("unexpected rows: %v", rows)
			}
		})
	}
}

func TestReadQuotedNewlineInHeader(t *testing.T) {
	// The quoted cell hides both a newline and a comma; the sniffer must
	// still settle on the semicolon.
	doc := "\"Call,\nID\";Agent\nc1;Mara\n"

	header, rows, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(header) != 2 || header[1] != "Agent" {
		t.Fatalf("unexpected header: %q", header)
	}
	if len(rows) != 1 || rows[0]["Agent"] != "Mara" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestReadBOM(t *testing.T) {
	doc := "\xEF\xBB\xBFDate,Calls\n2024-01-15,12\n"

	header, rows, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if header[0] != "Date" {
		t.Errorf("BOM leaked into header: %q", header[0])
	}
	if rows[0]["Date"] != "2024-01-15" {
		t.Errorf("unexpected row: %v", rows[0])
	}
}

func TestReadRaggedRow(t *testing.T) {
	doc := "A,B,C\n1,2\n"

	_, rows, err := Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0]["C"] != "" {
		t.Errorf("missing trailing column should read empty, got %q", rows[0]["C"])
	}
}

func TestReadEmptyDocument(t *testing.T) {
	if _, _, err := Read(strings.NewReader("")); err == nil {
		t.Error("expected error for empty document")
	}
	if _, _, err := Read(strings.NewReader("\n")); err == nil {
		t.Error("expected error for header-less document")
	}
}

func TestWriteQuoting(t *testing.T) {
	records := []types.CanonicalRecord{
		{Fields: map[string]string{"Agent": "Mara", "Status": "Abandoned, queue"}},
		{Fields: map[string]string{"Agent": `Jonas "JJ"`, "Status": "Answered"}},
	}

	var buf bytes.Buffer
	if err := Write(&buf, []string{"Agent", "Status"}, records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Round-trip through the reader to confirm the quoting held up.
	header, rows, err := Read(&buf)
	if err != nil {
		t.Fatalf("failed to re-read export: %v", err)
	}
	if header[0] != "Agent" || header[1] != "Status" {
		t.Errorf("unexpected header: %v", header)
	}
	if rows[0]["Status"] != "Abandoned, queue" {
		t.Errorf("comma value lost: %q", rows[0]["Status"])
	}
	if rows[1]["Agent"] != `Jonas "JJ"` {
		t.Errorf("quote value lost: %q", rows[1]["Agent"])
	}
}
