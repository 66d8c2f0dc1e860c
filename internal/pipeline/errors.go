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
	"context"
	"errors"
	"net"
	"os"
)

// ErrAllRowsInvalid is returned when an input file parses but not one
// row survives validation. The file stays in raw/ and the full row set
// lands in quarantine.
var ErrAllRowsInvalid = errors.New("no rows passed validation")

// ErrNoRows is returned when an input file contains a header but no
// data rows.
var ErrNoRows = errors.New("input file contains no data rows")

// Retryable reports whether an error is transient: the scheduler may
// re-run the file and expect a different outcome. Validation failures
// and malformed input are permanent; timeouts and connectivity
// failures are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAllRowsInvalid) || errors.Is(err, ErrNoRows) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
