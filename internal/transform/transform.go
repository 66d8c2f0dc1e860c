//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package transform anonymizes PII and computes derived business fields
// on validated sales records.
package transform

import (
	"math"
	"time"

	"github.com/minidataplatform/sales-etl/internal/logging"
	"github.com/minidataplatform/sales-etl/internal/record"
)

// Row is a transformed sales record, ready for warehouse load. Raw PII
// fields are replaced by their anonymized forms; the customer name is
// preserved as-is (not PII-classified by the platform).
type Row struct {
	OrderID            string
	CustomerName       string
	EmailHash          string
	PhoneRedacted      string
	AddressRedacted    string
	ProductTitle       string
	ProductCategory    string
	ProductRating      float64
	DiscountedPrice    float64
	OriginalPrice      float64
	DiscountPercentage int
	IsBestSeller       bool
	Quantity           int
	OrderDate          time.Time
	DeliveryDate       *time.Time
	DataCollectedAt    time.Time

	// Profit is discounted price minus assumed cost of goods. Nil when
	// the cost model is disabled or the value cannot be computed.
	Profit *float64
}

// Transformer applies PII anonymization and derived-field computation.
type Transformer struct {
	// costRatio is the assumed cost of goods as a fraction of the
	// original price. Outside [0, 1] the profit computation is
	// disabled rather than guessed.
	costRatio float64
}

// NewTransformer creates a Transformer with the given cost-of-goods
// ratio.
func NewTransformer(costRatio float64) *Transformer {
	return &Transformer{costRatio: costRatio}
}

// Apply transforms a validated batch. Row count and order never change;
// a value that cannot be transformed produces a safe default for that
// derived field only and is logged, never escalated.
func (t *Transformer) Apply(records []record.SalesRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, t.apply(rec))
	}
	return rows
}

func (t *Transformer) apply(rec record.SalesRecord) Row {
	row := Row{
		OrderID:            rec.OrderID,
		CustomerName:       rec.CustomerName,
		EmailHash:          HashEmail(rec.CustomerEmail),
		PhoneRedacted:      RedactPhone(rec.CustomerPhone),
		AddressRedacted:    RedactAddress(rec.CustomerAddress),
		ProductTitle:       rec.ProductTitle,
		ProductCategory:    rec.ProductCategory,
		ProductRating:      rec.ProductRating,
		DiscountedPrice:    Round2(rec.DiscountedPrice),
		OriginalPrice:      Round2(rec.OriginalPrice),
		DiscountPercentage: rec.DiscountPercentage,
		IsBestSeller:       rec.IsBestSeller,
		Quantity:           rec.Quantity,
		OrderDate:          normalizeDate(rec.OrderDate),
		DataCollectedAt:    normalizeDate(rec.DataCollectedAt),
	}

	if rec.DeliveryDate != nil {
		d := normalizeDate(*rec.DeliveryDate)
		row.DeliveryDate = &d
	}

	if t.costRatio >= 0 && t.costRatio <= 1 {
		profit := Round2(row.DiscountedPrice - row.OriginalPrice*t.costRatio)
		if math.IsNaN(profit) || math.IsInf(profit, 0) {
			logging.Warn().
				Str("order_id", rec.OrderID).
				Msg("Profit computation produced a non-finite value, loading NULL")
		} else {
			row.Profit = &profit
		}
	}

	return row
}

// Round2 rounds a monetary value to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// normalizeDate collapses a timestamp to its UTC calendar date, the
// canonical temporal type for warehouse load.
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
