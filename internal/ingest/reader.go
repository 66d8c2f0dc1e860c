//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package ingest turns a raw CSV byte stream into a lazy sequence of
// row batches, bounding peak memory for large inputs.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/minidataplatform/sales-etl/internal/logging"
	"github.com/minidataplatform/sales-etl/internal/record"
)

// Batch is one group of raw rows plus the header they were parsed under.
type Batch struct {
	// Index is the zero-based batch position within the file.
	Index int

	// Header is the column order of the source file.
	Header []string

	Rows []record.Raw
}

// Reader produces batches from a CSV stream. Files smaller than the
// chunk threshold are parsed into a single whole-file batch; larger
// files are parsed incrementally in fixed-size row batches.
type Reader struct {
	chunkThreshold int64
	batchSize      int
}

// NewReader creates a Reader with the given chunking parameters.
func NewReader(chunkThreshold int64, batchSize int) *Reader {
	return &Reader{
		chunkThreshold: chunkThreshold,
		batchSize:      batchSize,
	}
}

// Batches returns a lazy, non-restartable sequence of row batches.
// Consuming the sequence exhausts the source. A malformed header or any
// unparsable row terminates the sequence with an error; no partial batch
// is silently dropped after an error.
func (r *Reader) Batches(src io.Reader, size int64) iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		limit := r.batchSize
		if size < r.chunkThreshold {
			// Whole-file mode: one batch regardless of row count.
			limit = 0
		} else {
			logging.Info().
				Int64("size", size).
				Int64("threshold", r.chunkThreshold).
				Int("batch_size", r.batchSize).
				Msg("Input at or above chunk threshold, streaming in batches")
		}

		cr := csv.NewReader(src)
		cr.ReuseRecord = false

		header, err := cr.Read()
		if err != nil {
			yield(Batch{}, fmt.Errorf("reading header: %w", err))
			return
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
		if err := checkHeader(header); err != nil {
			yield(Batch{}, err)
			return
		}

		batch := Batch{Header: header}
		line := 0

		for {
			fields, err := cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				yield(Batch{}, fmt.Errorf("parsing row: %w", err))
				return
			}

			line++
			row := record.Raw{Line: line, Fields: make(map[string]string, len(header))}
			for i, col := range header {
				row.Fields[col] = fields[i]
			}
			batch.Rows = append(batch.Rows, row)

			if limit > 0 && len(batch.Rows) >= limit {
				if !yield(batch, nil) {
					return
				}
				batch = Batch{Index: batch.Index + 1, Header: header}
			}
		}

		if len(batch.Rows) > 0 {
			yield(batch, nil)
		}
	}
}

// checkHeader verifies that every required column is present. Optional
// columns (delivery_date) may be absent; downstream parsing only uses
// columns the header actually declares.
func checkHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	for _, col := range record.RequiredColumns {
		if !present[col] {
			return fmt.Errorf("missing required column %q in header", col)
		}
	}
	return nil
}
