package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/minidataplatform/sales-etl/internal/record"
)

const testHeader = "order_id,customer_name,customer_email,customer_phone,customer_address," +
	"product_title,product_rating,discounted_price,original_price,discount_percentage," +
	"is_best_seller,delivery_date,data_collected_at,product_category,quantity,order_date"

func testRow(i int) string {
	return fmt.Sprintf("ORDER%05d,Jordan Smith,jordan%d@example.com,555-123-4567,"+
		"\"742 Evergreen Terrace, Springfield\",Premium Laptop,4.5,799.99,999.99,20,"+
		"True,2025-11-20,2025-11-10,Electronics,2,2025-11-15", i, i)
}

func testCSV(rows int) string {
	lines := []string{testHeader}
	for i := 1; i <= rows; i++ {
		lines = append(lines, testRow(i))
	}
	return strings.Join(lines, "\n") + "\n"
}

func collect(t *testing.T, r *Reader, data string) []Batch {
	t.Helper()
	var batches []Batch
	for batch, err := range r.Batches(strings.NewReader(data), int64(len(data))) {
		if err != nil {
			t.Fatalf("Unexpected batch error: %v", err)
		}
		batches = append(batches, batch)
	}
	return batches
}

func TestWholeFileBelowThreshold(t *testing.T) {
	data := testCSV(25)
	// Threshold far above input size, tiny batch size: batch size must
	// be ignored in whole-file mode.
	r := NewReader(1<<30, 10)

	batches := collect(t, r, data)
	if len(batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(batches))
	}
	if len(batches[0].Rows) != 25 {
		t.Errorf("Expected 25 rows, got %d", len(batches[0].Rows))
	}
	if batches[0].Index != 0 {
		t.Errorf("Expected batch index 0, got %d", batches[0].Index)
	}
}

func TestChunkedAtThreshold(t *testing.T) {
	data := testCSV(25)
	// Threshold of zero forces chunked mode.
	r := NewReader(0, 10)

	batches := collect(t, r, data)
	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	wantSizes := []int{10, 10, 5}
	for i, b := range batches {
		if b.Index != i {
			t.Errorf("Batch %d has index %d", i, b.Index)
		}
		if len(b.Rows) != wantSizes[i] {
			t.Errorf("Batch %d has %d rows, want %d", i, len(b.Rows), wantSizes[i])
		}
	}

	// Row order and line numbers are continuous across batches.
	line := 0
	for _, b := range batches {
		for _, row := range b.Rows {
			line++
			if row.Line != line {
				t.Fatalf("Row line %d, want %d", row.Line, line)
			}
			wantID := fmt.Sprintf("ORDER%05d", line)
			if row.Get(record.ColOrderID) != wantID {
				t.Fatalf("Row order_id %s, want %s", row.Get(record.ColOrderID), wantID)
			}
		}
	}
}

func TestChunkingEquivalence(t *testing.T) {
	data := testCSV(42)

	whole := collect(t, NewReader(1<<30, 10), data)
	chunked := collect(t, NewReader(0, 7), data)

	var wholeRows, chunkedRows []record.Raw
	for _, b := range whole {
		wholeRows = append(wholeRows, b.Rows...)
	}
	for _, b := range chunked {
		chunkedRows = append(chunkedRows, b.Rows...)
	}

	if len(wholeRows) != len(chunkedRows) {
		t.Fatalf("Row counts differ: %d vs %d", len(wholeRows), len(chunkedRows))
	}
	for i := range wholeRows {
		if wholeRows[i].Line != chunkedRows[i].Line {
			t.Errorf("Row %d: line %d vs %d", i, wholeRows[i].Line, chunkedRows[i].Line)
		}
		if wholeRows[i].Get(record.ColOrderID) != chunkedRows[i].Get(record.ColOrderID) {
			t.Errorf("Row %d order_id mismatch", i)
		}
	}
}

func TestMissingRequiredColumn(t *testing.T) {
	data := "order_id,customer_name\nORDER00001,Jordan Smith\n"
	r := NewReader(1<<30, 10)

	var gotErr error
	for _, err := range r.Batches(strings.NewReader(data), int64(len(data))) {
		if err != nil {
			gotErr = err
			break
		}
	}
	if gotErr == nil {
		t.Fatal("Expected error for missing required column")
	}
	if !strings.Contains(gotErr.Error(), "missing required column") {
		t.Errorf("Unexpected error: %v", gotErr)
	}
}

func TestOptionalDeliveryDateColumnAbsent(t *testing.T) {
	header := strings.ReplaceAll(testHeader, ",delivery_date", "")
	row := "ORDER00001,Jordan Smith,j@example.com,555-123-4567,\"742 Evergreen Terrace\"," +
		"Premium Laptop,4.5,799.99,999.99,20,True,2025-11-10,Electronics,2,2025-11-15"
	data := header + "\n" + row + "\n"

	batches := collect(t, NewReader(1<<30, 10), data)
	if len(batches) != 1 || len(batches[0].Rows) != 1 {
		t.Fatal("Expected one batch with one row")
	}
	if batches[0].Rows[0].Has(record.ColDeliveryDate) {
		t.Error("delivery_date should be absent from row fields")
	}
}

func TestMalformedCSVFailsFile(t *testing.T) {
	// Second data row has the wrong number of fields.
	data := testHeader + "\n" + testRow(1) + "\n" + "ORDER00002,only,three\n" + testRow(3) + "\n"
	r := NewReader(0, 1)

	var batches []Batch
	var gotErr error
	for batch, err := range r.Batches(strings.NewReader(data), int64(len(data))) {
		if err != nil {
			gotErr = err
			break
		}
		batches = append(batches, batch)
	}
	if gotErr == nil {
		t.Fatal("Expected parse error")
	}
	// Only the batch completed before the error was delivered.
	if len(batches) != 1 {
		t.Errorf("Expected 1 batch before error, got %d", len(batches))
	}
}

func TestEmptyFileYieldsNoBatches(t *testing.T) {
	data := testHeader + "\n"
	batches := collect(t, NewReader(1<<30, 10), data)
	if len(batches) != 0 {
		t.Errorf("Expected no batches for header-only file, got %d", len(batches))
	}
}
