//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package record

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyBatch is returned when a batch contains no rows at all.
var ErrEmptyBatch = errors.New("batch contains no rows")

// Invalid is a row that failed validation, kept with its source fields
// for quarantine.
type Invalid struct {
	Raw    Raw
	Reason string
}

// Partition is the result of validating one batch: valid and invalid
// rows, each in the relative order of appearance in the input.
type Partition struct {
	Valid   []SalesRecord
	Invalid []Invalid
}

// Validate checks every row of a batch against the sales record schema.
// One row's failure never excludes other rows; each invalid row carries
// an accumulated, human-readable reason.
func Validate(rows []Raw) (Partition, error) {
	if len(rows) == 0 {
		return Partition{}, ErrEmptyBatch
	}

	var p Partition
	for _, raw := range rows {
		rec, reasons := validateRow(raw)
		if len(reasons) > 0 {
			p.Invalid = append(p.Invalid, Invalid{
				Raw:    raw,
				Reason: strings.Join(reasons, "; "),
			})
			continue
		}
		p.Valid = append(p.Valid, rec)
	}
	return p, nil
}

// validateRow parses and validates a single row, accumulating one reason
// per violated constraint instead of stopping at the first.
func validateRow(raw Raw) (SalesRecord, []string) {
	var rec SalesRecord
	var reasons []string

	fail := func(col, msg string) {
		reasons = append(reasons, fmt.Sprintf("%s: %s", col, msg))
	}

	rec.OrderID = requireText(raw, ColOrderID, 50, fail)
	rec.CustomerName = requireText(raw, ColCustomerName, 255, fail)
	rec.CustomerPhone = requireText(raw, ColCustomerPhone, 50, fail)
	rec.CustomerAddress = requireText(raw, ColCustomerAddress, 500, fail)
	rec.ProductTitle = requireText(raw, ColProductTitle, 500, fail)
	rec.ProductCategory = requireText(raw, ColProductCategory, 100, fail)

	rec.CustomerEmail = raw.Get(ColCustomerEmail)
	if rec.CustomerEmail == "" {
		fail(ColCustomerEmail, "must not be empty")
	} else if addr, err := mail.ParseAddress(rec.CustomerEmail); err != nil || addr.Address != rec.CustomerEmail {
		fail(ColCustomerEmail, "not a valid email address")
	}

	// The range check is written in whitelist form so NaN fails it:
	// ParseFloat accepts "nan" and "inf", which must never reach the
	// warehouse.
	if v, err := strconv.ParseFloat(raw.Get(ColProductRating), 64); err != nil {
		fail(ColProductRating, "not a number")
	} else if !(v >= 1.0 && v <= 5.0) {
		fail(ColProductRating, "must be between 1.0 and 5.0")
	} else {
		rec.ProductRating = v
	}

	rec.DiscountedPrice = parsePrice(raw, ColDiscountedPrice, fail)
	rec.OriginalPrice = parsePrice(raw, ColOriginalPrice, fail)
	if rec.DiscountedPrice > 0 && rec.OriginalPrice > 0 && rec.DiscountedPrice > rec.OriginalPrice {
		fail(ColDiscountedPrice, "must not exceed original_price")
	}

	if v, err := strconv.Atoi(raw.Get(ColDiscountPercentage)); err != nil {
		fail(ColDiscountPercentage, "not an integer")
	} else if v < 0 || v > 100 {
		fail(ColDiscountPercentage, "must be between 0 and 100")
	} else {
		rec.DiscountPercentage = v
	}

	if v, err := strconv.ParseBool(raw.Get(ColIsBestSeller)); err != nil {
		fail(ColIsBestSeller, "not a boolean")
	} else {
		rec.IsBestSeller = v
	}

	if v, err := strconv.Atoi(raw.Get(ColQuantity)); err != nil {
		fail(ColQuantity, "not an integer")
	} else if v < 1 {
		fail(ColQuantity, "must be at least 1")
	} else {
		rec.Quantity = v
	}

	rec.OrderDate = parseDate(raw, ColOrderDate, fail)
	rec.DataCollectedAt = parseDate(raw, ColDataCollectedAt, fail)

	// delivery_date is optional, both as a column and per row.
	if raw.Has(ColDeliveryDate) && raw.Get(ColDeliveryDate) != "" {
		d := parseDate(raw, ColDeliveryDate, fail)
		if !d.IsZero() {
			if !rec.OrderDate.IsZero() && d.Before(rec.OrderDate) {
				fail(ColDeliveryDate, "must not be before order_date")
			} else {
				rec.DeliveryDate = &d
			}
		}
	}

	if len(reasons) > 0 {
		return SalesRecord{}, reasons
	}
	return rec, nil
}

func requireText(raw Raw, col string, maxLen int, fail func(col, msg string)) string {
	v := raw.Get(col)
	if v == "" {
		fail(col, "must not be empty")
		return ""
	}
	if len(v) > maxLen {
		fail(col, fmt.Sprintf("must be at most %d characters", maxLen))
		return ""
	}
	return v
}

func parsePrice(raw Raw, col string, fail func(col, msg string)) float64 {
	s := raw.Get(col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fail(col, "not a number")
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		fail(col, "not a finite number")
		return 0
	}
	if v <= 0 {
		fail(col, "must be greater than 0")
		return 0
	}
	if !atMostTwoDecimals(s) {
		fail(col, "must have at most 2 decimal places")
		return 0
	}
	return v
}

// atMostTwoDecimals checks the textual form so that values like 19.999
// are rejected without float comparison artifacts.
func atMostTwoDecimals(s string) bool {
	if strings.ContainsAny(s, "eE") {
		return false
	}
	_, frac, found := strings.Cut(s, ".")
	return !found || len(frac) <= 2
}

func parseDate(raw Raw, col string, fail func(col, msg string)) time.Time {
	t, err := time.Parse(DateLayout, raw.Get(col))
	if err != nil {
		fail(col, "not a valid date (expected YYYY-MM-DD)")
		return time.Time{}
	}
	return t
}
