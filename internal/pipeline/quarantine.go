//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/minidataplatform/sales-etl/internal/record"
)

// quarantineDoc accumulates rejected rows as an encoded CSV document:
// the input file's own header plus a trailing validation_error column,
// one row per rejection in original file order. Rows are encoded as
// each batch is validated, so peak memory tracks the CSV text of the
// invalid share of the input rather than the parsed row maps.
type quarantineDoc struct {
	header []string
	buf    bytes.Buffer
	w      *csv.Writer
	rows   int
}

func newQuarantineDoc(header []string) (*quarantineDoc, error) {
	q := &quarantineDoc{header: header}
	q.w = csv.NewWriter(&q.buf)
	if err := q.w.Write(append(append([]string{}, header...), "validation_error")); err != nil {
		return nil, fmt.Errorf("write quarantine header: %w", err)
	}
	return q, nil
}

// add encodes one batch's rejected rows.
func (q *quarantineDoc) add(invalid []record.Invalid) error {
	for _, inv := range invalid {
		fields := make([]string, 0, len(q.header)+1)
		for _, col := range q.header {
			fields = append(fields, inv.Raw.Fields[col])
		}
		fields = append(fields, inv.Reason)
		if err := q.w.Write(fields); err != nil {
			return fmt.Errorf("write quarantine row %d: %w", inv.Raw.Line, err)
		}
	}
	q.rows += len(invalid)
	return nil
}

// document returns the finished CSV.
func (q *quarantineDoc) document() ([]byte, error) {
	q.w.Flush()
	if err := q.w.Error(); err != nil {
		return nil, fmt.Errorf("flush quarantine csv: %w", err)
	}
	return q.buf.Bytes(), nil
}
