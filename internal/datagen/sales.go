//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/minidataplatform/sales-etl/internal/record"
)

const orderIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SalesGenerator writes sample sales CSV files in the pipeline's input
// format. An invalid rate above zero deliberately corrupts a fraction
// of the rows, for exercising the quarantine path.
type SalesGenerator struct {
	faker       *Faker
	invalidRate float64
	anchor      time.Time
}

// NewSalesGenerator creates a generator. A zero seed draws a random
// one; any other seed makes the output byte-for-byte reproducible,
// which also requires pinning the date anchor.
func NewSalesGenerator(seed uint64, invalidRate float64) *SalesGenerator {
	faker := NewFaker()
	anchor := time.Now()
	if seed != 0 {
		faker = NewFakerWithSeed(seed)
		anchor = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &SalesGenerator{faker: faker, invalidRate: invalidRate, anchor: anchor}
}

// WriteCSV writes a header plus the requested number of data rows.
func (g *SalesGenerator) WriteCSV(w io.Writer, rows int) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(record.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < rows; i++ {
		row := g.row()
		if g.invalidRate > 0 && g.faker.Float64(0, 1) < g.invalidRate {
			g.corrupt(row)
		}
		fields := make([]string, 0, len(record.Columns))
		for _, col := range record.Columns {
			fields = append(fields, row[col])
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// row produces one schema-conforming record as column name to value.
func (g *SalesGenerator) row() map[string]string {
	f := g.faker

	orderDate := f.DateRange(
		g.anchor.AddDate(-1, 0, 0),
		g.anchor,
	).Truncate(24 * time.Hour)
	delivery := orderDate.AddDate(0, 0, f.Int(1, 14))
	collected := orderDate.AddDate(0, 0, -f.Int(0, 30))

	discount := f.Int(0, 80)
	original := f.Price(10, 2000)
	discounted := original * float64(100-discount) / 100

	return map[string]string{
		record.ColOrderID:            f.RandomString(10, orderIDCharset),
		record.ColCustomerName:       f.Name(),
		record.ColCustomerEmail:      f.Email(),
		record.ColCustomerPhone:      fmt.Sprintf("%s-%s-%s", f.Digits(3), f.Digits(3), f.Digits(4)),
		record.ColCustomerAddress:    fmt.Sprintf("%s, %s, %s %s", f.Street(), f.City(), f.State(), f.Zip()),
		record.ColProductTitle:       f.ProductName(),
		record.ColProductRating:      fmt.Sprintf("%.1f", float64(f.Int(10, 50))/10),
		record.ColDiscountedPrice:    fmt.Sprintf("%.2f", discounted),
		record.ColOriginalPrice:      fmt.Sprintf("%.2f", original),
		record.ColDiscountPercentage: fmt.Sprintf("%d", discount),
		record.ColIsBestSeller:       fmt.Sprintf("%t", f.Bool()),
		record.ColDeliveryDate:       delivery.Format(record.DateLayout),
		record.ColDataCollectedAt:    collected.Format(record.DateLayout),
		record.ColProductCategory:    f.ProductCategory(),
		record.ColQuantity:           fmt.Sprintf("%d", f.Int(1, 10)),
		record.ColOrderDate:          orderDate.Format(record.DateLayout),
	}
}

// corrupt applies one randomly chosen schema violation in place.
func (g *SalesGenerator) corrupt(row map[string]string) {
	anomalies := []func(map[string]string){
		func(r map[string]string) { r[record.ColOrderID] = "" },
		func(r map[string]string) { r[record.ColCustomerEmail] = "not-an-email" },
		func(r map[string]string) { r[record.ColProductRating] = "9.9" },
		func(r map[string]string) { r[record.ColQuantity] = "-1" },
		func(r map[string]string) { r[record.ColDiscountPercentage] = "150" },
		func(r map[string]string) { r[record.ColDiscountedPrice] = "-5.00" },
		func(r map[string]string) { r[record.ColOrderDate] = "15/11/2025" },
		func(r map[string]string) {
			// Delivery strictly before the order date.
			order, err := time.Parse(record.DateLayout, r[record.ColOrderDate])
			if err != nil {
				r[record.ColDeliveryDate] = "not-a-date"
				return
			}
			r[record.ColDeliveryDate] = order.AddDate(0, 0, -3).Format(record.DateLayout)
		},
	}
	Choose(g.faker, anomalies)(row)
}
