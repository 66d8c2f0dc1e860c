//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package notify delivers run outcome reports. Notification is
// best-effort: a failed delivery never changes the run outcome.
package notify

import (
	"github.com/minidataplatform/sales-etl/internal/logging"
)

// Report summarizes one pipeline run for downstream consumers.
type Report struct {
	RunID        string
	FileKey      string
	Status       string
	TotalCount   int
	ValidCount   int
	InvalidCount int
	LoadedCount  int
	Error        string
}

// Notifier delivers a run report to some channel.
type Notifier interface {
	Notify(report Report) error
}

// LogNotifier writes run reports to the structured log. It is the
// default channel; external channels (email, chat webhooks) plug in
// behind the same interface.
type LogNotifier struct{}

// Notify logs the report at a level matching the run outcome.
func (LogNotifier) Notify(report Report) error {
	ev := logging.Info()
	if report.Error != "" {
		ev = logging.Error()
	}
	ev.Str("run_id", report.RunID).
		Str("file", report.FileKey).
		Str("status", report.Status).
		Int("total", report.TotalCount).
		Int("valid", report.ValidCount).
		Int("invalid", report.InvalidCount).
		Int("loaded", report.LoadedCount)
	if report.Error != "" {
		ev = ev.Str("error", report.Error)
	}
	ev.Msg("Pipeline run report")
	return nil
}
