//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline orchestrates one run: read the input file in
// batches, validate, quarantine rejects, anonymize, derive, and load
// into the warehouse.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minidataplatform/sales-etl/internal/ingest"
	"github.com/minidataplatform/sales-etl/internal/logging"
	"github.com/minidataplatform/sales-etl/internal/notify"
	"github.com/minidataplatform/sales-etl/internal/record"
	"github.com/minidataplatform/sales-etl/internal/storage"
	"github.com/minidataplatform/sales-etl/internal/transform"
	"github.com/minidataplatform/sales-etl/internal/warehouse"
)

// Status is the terminal state of a pipeline run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result summarizes one pipeline run.
type Result struct {
	RunID        string
	FileKey      string
	Status       Status
	TotalCount   int
	ValidCount   int
	InvalidCount int
	LoadedCount  int
}

// BatchWriter loads one transformed batch into the warehouse.
type BatchWriter interface {
	WriteBatch(ctx context.Context, rows []transform.Row) (warehouse.BatchResult, error)
}

// Config wires a Pipeline's collaborators.
type Config struct {
	Store       storage.ObjectStore
	Prefixes    storage.Prefixes
	Reader      *ingest.Reader
	Transformer *transform.Transformer
	Writer      BatchWriter
	Notifier    notify.Notifier

	// OpTimeout bounds each individual storage or warehouse call. The
	// run as a whole is bounded only by the caller's context.
	OpTimeout time.Duration
}

// Pipeline runs the validate-anonymize-load sequence for one input
// file at a time. A Pipeline is stateless across runs.
type Pipeline struct {
	store       storage.ObjectStore
	prefixes    storage.Prefixes
	reader      *ingest.Reader
	transformer *transform.Transformer
	writer      BatchWriter
	notifier    notify.Notifier
	opTimeout   time.Duration
	now         func() time.Time
}

// New creates a Pipeline from its wired collaborators.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		store:       cfg.Store,
		prefixes:    cfg.Prefixes,
		reader:      cfg.Reader,
		transformer: cfg.Transformer,
		writer:      cfg.Writer,
		notifier:    cfg.Notifier,
		opTimeout:   cfg.OpTimeout,
		now:         time.Now,
	}
}

// Run processes one raw input file end to end. Invalid rows are
// quarantined and do not fail the run; the input is archived to
// processed/ only when the run succeeds. The returned Result is
// populated with whatever counts were reached even when err is
// non-nil.
func (p *Pipeline) Run(ctx context.Context, fileKey string) (Result, error) {
	res := Result{
		RunID:   uuid.NewString(),
		FileKey: fileKey,
		Status:  StatusFailed,
	}

	logging.Info().
		Str("run_id", res.RunID).
		Str("file", fileKey).
		Msg("Pipeline run started")

	size, err := p.objectSize(ctx, fileKey)
	if err != nil {
		return p.fail(res, fmt.Errorf("file %s: %w", fileKey, err))
	}

	src, err := p.store.Get(ctx, fileKey)
	if err != nil {
		return p.fail(res, fmt.Errorf("file %s: %w", fileKey, err))
	}
	defer src.Close()

	var rejected *quarantineDoc

	for batch, err := range p.reader.Batches(src, size) {
		if err != nil {
			return p.fail(res, fmt.Errorf("file %s: %w", fileKey, err))
		}
		if rejected == nil {
			rejected, err = newQuarantineDoc(batch.Header)
			if err != nil {
				return p.fail(res, fmt.Errorf("file %s: %w", fileKey, err))
			}
		}
		res.TotalCount += len(batch.Rows)

		part, err := record.Validate(batch.Rows)
		if err != nil {
			return p.fail(res, fmt.Errorf("file %s batch %d: %w", fileKey, batch.Index, err))
		}
		res.ValidCount += len(part.Valid)
		res.InvalidCount += len(part.Invalid)
		if err := rejected.add(part.Invalid); err != nil {
			return p.fail(res, fmt.Errorf("file %s batch %d: %w", fileKey, batch.Index, err))
		}

		if len(part.Valid) > 0 {
			rows := p.transformer.Apply(part.Valid)
			wres, err := p.writeBatch(ctx, rows)
			if err != nil {
				return p.fail(res, fmt.Errorf("file %s batch %d: %w", fileKey, batch.Index, err))
			}
			res.LoadedCount += wres.Facts
		}

		logging.Debug().
			Str("run_id", res.RunID).
			Int("batch", batch.Index).
			Int("rows", len(batch.Rows)).
			Int("invalid", len(part.Invalid)).
			Msg("Batch processed")

		if err := ctx.Err(); err != nil {
			return p.fail(res, fmt.Errorf("file %s: %w", fileKey, err))
		}
	}

	if res.TotalCount == 0 {
		return p.fail(res, fmt.Errorf("file %s: %w", fileKey, ErrNoRows))
	}

	if rejected.rows > 0 {
		if err := p.quarantine(ctx, fileKey, rejected); err != nil {
			return p.fail(res, fmt.Errorf("file %s: %w", fileKey, err))
		}
	}

	if res.ValidCount == 0 {
		return p.fail(res, fmt.Errorf("file %s: %w", fileKey, ErrAllRowsInvalid))
	}

	if err := p.archive(ctx, fileKey); err != nil {
		return p.fail(res, fmt.Errorf("file %s: %w", fileKey, err))
	}

	res.Status = StatusSucceeded
	logging.Info().
		Str("run_id", res.RunID).
		Str("file", fileKey).
		Int("total", res.TotalCount).
		Int("valid", res.ValidCount).
		Int("invalid", res.InvalidCount).
		Int("loaded", res.LoadedCount).
		Msg("Pipeline run succeeded")

	p.report(res, nil)
	return res, nil
}

func (p *Pipeline) objectSize(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()
	return p.store.Size(ctx, key)
}

func (p *Pipeline) writeBatch(ctx context.Context, rows []transform.Row) (warehouse.BatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()
	return p.writer.WriteBatch(ctx, rows)
}

// quarantine writes the rejected rows as a CSV under the quarantine
// prefix. A quarantine write failure fails the run: losing the
// diagnostic record would silently discard data.
func (p *Pipeline) quarantine(ctx context.Context, fileKey string, rejected *quarantineDoc) error {
	doc, err := rejected.document()
	if err != nil {
		return err
	}

	key := p.prefixes.QuarantineKey(fileKey, p.now())

	ctx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()
	if err := p.store.Put(ctx, key, doc, "text/csv"); err != nil {
		return fmt.Errorf("quarantine write: %w", err)
	}

	logging.Warn().
		Str("file", fileKey).
		Str("quarantine", key).
		Int("rows", rejected.rows).
		Msg("Invalid rows quarantined")
	return nil
}

func (p *Pipeline) archive(ctx context.Context, fileKey string) error {
	destKey, err := p.prefixes.ProcessedKey(fileKey)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()
	return p.store.Move(ctx, fileKey, destKey)
}

// fail finalizes a failed run: logs, reports, and passes the error up.
func (p *Pipeline) fail(res Result, err error) (Result, error) {
	logging.Error().
		Str("run_id", res.RunID).
		Str("file", res.FileKey).
		Bool("retryable", Retryable(err)).
		Err(err).
		Msg("Pipeline run failed")
	p.report(res, err)
	return res, err
}

// report delivers the run outcome to the notifier. Delivery is
// best-effort.
func (p *Pipeline) report(res Result, runErr error) {
	if p.notifier == nil {
		return
	}
	rep := notify.Report{
		RunID:        res.RunID,
		FileKey:      res.FileKey,
		Status:       string(res.Status),
		TotalCount:   res.TotalCount,
		ValidCount:   res.ValidCount,
		InvalidCount: res.InvalidCount,
		LoadedCount:  res.LoadedCount,
	}
	if runErr != nil {
		rep.Error = runErr.Error()
	}
	if err := p.notifier.Notify(rep); err != nil {
		logging.Warn().Err(err).Str("run_id", res.RunID).Msg("Failed to deliver run report")
	}
}
