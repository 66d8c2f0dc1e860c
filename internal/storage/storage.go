//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package storage defines the object-store capability the pipeline
// depends on and its MinIO implementation.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ObjectStore is the storage capability consumed by the pipeline. The
// bucket is fixed at construction; keys are bucket-relative.
type ObjectStore interface {
	// Size returns the object's size in bytes.
	Size(ctx context.Context, key string) (int64, error)

	// Get opens the object for reading. The caller must close the
	// returned stream.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put writes an object in full.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Move relocates an object (copy then delete).
	Move(ctx context.Context, srcKey, destKey string) error
}

// Prefixes maps the conventional input, archive and diagnostic areas of
// the bucket.
type Prefixes struct {
	Raw        string
	Processed  string
	Quarantine string
}

// ProcessedKey maps a raw input key to its archive location.
func (p Prefixes) ProcessedKey(rawKey string) (string, error) {
	if !strings.HasPrefix(rawKey, p.Raw) {
		return "", fmt.Errorf("key %q is not under the raw prefix %q", rawKey, p.Raw)
	}
	return p.Processed + strings.TrimPrefix(rawKey, p.Raw), nil
}

// QuarantineKey derives the diagnostic object key for a raw input key.
// The timestamp keeps quarantine append-only across scheduler retries:
// each attempt writes a distinct object instead of overwriting the
// previous diagnosis.
func (p Prefixes) QuarantineKey(rawKey string, ts time.Time) string {
	name := strings.TrimPrefix(rawKey, p.Raw)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s%s_%s%s", p.Quarantine, base, ts.UTC().Format("20060102T150405Z"), ext)
}
