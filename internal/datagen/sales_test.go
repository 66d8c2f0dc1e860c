package datagen

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/minidataplatform/sales-etl/internal/record"
)

func parseRows(t *testing.T, data []byte) []record.Raw {
	t.Helper()

	cr := csv.NewReader(bytes.NewReader(data))
	all, err := cr.ReadAll()
	if err != nil {
		t.Fatalf("Generated CSV does not parse: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("Generated CSV is empty")
	}

	header := all[0]
	rows := make([]record.Raw, 0, len(all)-1)
	for i, fields := range all[1:] {
		row := record.Raw{Line: i + 1, Fields: make(map[string]string, len(header))}
		for j, col := range header {
			row.Fields[col] = fields[j]
		}
		rows = append(rows, row)
	}
	return rows
}

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewSalesGenerator(42, 0).WriteCSV(&buf, 1); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	cr := csv.NewReader(bytes.NewReader(buf.Bytes()))
	header, err := cr.Read()
	if err != nil {
		t.Fatalf("Reading header failed: %v", err)
	}
	if len(header) != len(record.Columns) {
		t.Fatalf("Header has %d columns, want %d", len(header), len(record.Columns))
	}
	for i, col := range record.Columns {
		if header[i] != col {
			t.Errorf("Header[%d] = %q, want %q", i, header[i], col)
		}
	}
}

func TestWriteCSVAllRowsValid(t *testing.T) {
	var buf bytes.Buffer
	if err := NewSalesGenerator(42, 0).WriteCSV(&buf, 200); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows := parseRows(t, buf.Bytes())
	if len(rows) != 200 {
		t.Fatalf("Generated %d rows, want 200", len(rows))
	}

	part, err := record.Validate(rows)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	for _, inv := range part.Invalid {
		t.Errorf("Row %d unexpectedly invalid: %s", inv.Raw.Line, inv.Reason)
	}
}

func TestWriteCSVInvalidRate(t *testing.T) {
	var buf bytes.Buffer
	if err := NewSalesGenerator(42, 1.0).WriteCSV(&buf, 100); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	part, err := record.Validate(parseRows(t, buf.Bytes()))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(part.Invalid) != 100 {
		t.Errorf("Expected every row invalid, got %d of 100", len(part.Invalid))
	}
}

func TestWriteCSVReproducible(t *testing.T) {
	var a, b bytes.Buffer
	if err := NewSalesGenerator(7, 0.2).WriteCSV(&a, 50); err != nil {
		t.Fatalf("First WriteCSV failed: %v", err)
	}
	if err := NewSalesGenerator(7, 0.2).WriteCSV(&b, 50); err != nil {
		t.Fatalf("Second WriteCSV failed: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("Same seed should produce identical output")
	}
}
