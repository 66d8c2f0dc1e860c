package record

import (
	"errors"
	"strings"
	"testing"
)

// validFields returns a fully valid row's fields.
func validFields() map[string]string {
	return map[string]string{
		ColOrderID:            "A1B2C3D4E5",
		ColCustomerName:       "Jordan Smith",
		ColCustomerEmail:      "jordan.smith@example.com",
		ColCustomerPhone:      "555-123-4567",
		ColCustomerAddress:    "742 Evergreen Terrace, Springfield, OR 97403",
		ColProductTitle:       "Premium Laptop - Electronics Edition",
		ColProductRating:      "4.5",
		ColDiscountedPrice:    "799.99",
		ColOriginalPrice:      "999.99",
		ColDiscountPercentage: "20",
		ColIsBestSeller:       "True",
		ColDeliveryDate:       "2025-11-20",
		ColDataCollectedAt:    "2025-11-10",
		ColProductCategory:    "Electronics",
		ColQuantity:           "2",
		ColOrderDate:          "2025-11-15",
	}
}

func rawRow(line int, mutate func(map[string]string)) Raw {
	fields := validFields()
	if mutate != nil {
		mutate(fields)
	}
	return Raw{Line: line, Fields: fields}
}

func TestValidateEmptyBatch(t *testing.T) {
	_, err := Validate(nil)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Expected ErrEmptyBatch, got %v", err)
	}
}

func TestValidateValidRow(t *testing.T) {
	p, err := Validate([]Raw{rawRow(1, nil)})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(p.Valid) != 1 || len(p.Invalid) != 0 {
		t.Fatalf("Expected 1 valid, 0 invalid; got %d valid, %d invalid", len(p.Valid), len(p.Invalid))
	}

	rec := p.Valid[0]
	if rec.OrderID != "A1B2C3D4E5" {
		t.Errorf("Unexpected OrderID: %s", rec.OrderID)
	}
	if rec.ProductRating != 4.5 {
		t.Errorf("Unexpected ProductRating: %f", rec.ProductRating)
	}
	if rec.Quantity != 2 {
		t.Errorf("Unexpected Quantity: %d", rec.Quantity)
	}
	if !rec.IsBestSeller {
		t.Error("Expected IsBestSeller true")
	}
	// Dates must stay date-typed, not degrade to text.
	if rec.OrderDate.Format(DateLayout) != "2025-11-15" {
		t.Errorf("Unexpected OrderDate: %v", rec.OrderDate)
	}
	if rec.DeliveryDate == nil || rec.DeliveryDate.Format(DateLayout) != "2025-11-20" {
		t.Errorf("Unexpected DeliveryDate: %v", rec.DeliveryDate)
	}
}

func TestValidateFieldViolations(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(map[string]string)
		wantReason string
	}{
		{
			name:       "empty order id",
			mutate:     func(f map[string]string) { f[ColOrderID] = "  " },
			wantReason: "order_id: must not be empty",
		},
		{
			name:       "bad email",
			mutate:     func(f map[string]string) { f[ColCustomerEmail] = "not-an-email" },
			wantReason: "customer_email: not a valid email address",
		},
		{
			name:       "rating too high",
			mutate:     func(f map[string]string) { f[ColProductRating] = "5.5" },
			wantReason: "product_rating: must be between 1.0 and 5.0",
		},
		{
			name:       "rating not numeric",
			mutate:     func(f map[string]string) { f[ColProductRating] = "great" },
			wantReason: "product_rating: not a number",
		},
		{
			// ParseFloat accepts "nan"; the range check must still reject it.
			name:       "rating NaN",
			mutate:     func(f map[string]string) { f[ColProductRating] = "nan" },
			wantReason: "product_rating: must be between 1.0 and 5.0",
		},
		{
			name:       "rating infinite",
			mutate:     func(f map[string]string) { f[ColProductRating] = "inf" },
			wantReason: "product_rating: must be between 1.0 and 5.0",
		},
		{
			name:       "order id too long",
			mutate:     func(f map[string]string) { f[ColOrderID] = strings.Repeat("X", 51) },
			wantReason: "order_id: must be at most 50 characters",
		},
		{
			name:       "negative quantity",
			mutate:     func(f map[string]string) { f[ColQuantity] = "-1" },
			wantReason: "quantity: must be at least 1",
		},
		{
			name:       "zero price",
			mutate:     func(f map[string]string) { f[ColOriginalPrice] = "0" },
			wantReason: "original_price: must be greater than 0",
		},
		{
			name:       "too many decimal places",
			mutate:     func(f map[string]string) { f[ColDiscountedPrice] = "19.999" },
			wantReason: "discounted_price: must have at most 2 decimal places",
		},
		{
			name:       "price NaN",
			mutate:     func(f map[string]string) { f[ColDiscountedPrice] = "NaN" },
			wantReason: "discounted_price: not a finite number",
		},
		{
			name:       "price infinite",
			mutate:     func(f map[string]string) { f[ColOriginalPrice] = "+Inf" },
			wantReason: "original_price: not a finite number",
		},
		{
			name: "discounted above original",
			mutate: func(f map[string]string) {
				f[ColDiscountedPrice] = "1500.00"
				f[ColOriginalPrice] = "1000.00"
			},
			wantReason: "discounted_price: must not exceed original_price",
		},
		{
			name:       "discount percentage out of range",
			mutate:     func(f map[string]string) { f[ColDiscountPercentage] = "150" },
			wantReason: "discount_percentage: must be between 0 and 100",
		},
		{
			name:       "bad boolean",
			mutate:     func(f map[string]string) { f[ColIsBestSeller] = "maybe" },
			wantReason: "is_best_seller: not a boolean",
		},
		{
			name:       "bad order date",
			mutate:     func(f map[string]string) { f[ColOrderDate] = "15/11/2025" },
			wantReason: "order_date: not a valid date",
		},
		{
			name: "delivery before order",
			mutate: func(f map[string]string) {
				f[ColOrderDate] = "2025-11-15"
				f[ColDeliveryDate] = "2025-11-01"
			},
			wantReason: "delivery_date: must not be before order_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Validate([]Raw{rawRow(1, tt.mutate)})
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if len(p.Invalid) != 1 {
				t.Fatalf("Expected 1 invalid row, got %d (valid: %d)", len(p.Invalid), len(p.Valid))
			}
			if !strings.Contains(p.Invalid[0].Reason, tt.wantReason) {
				t.Errorf("Reason %q does not contain %q", p.Invalid[0].Reason, tt.wantReason)
			}
		})
	}
}

func TestValidateAccumulatesReasons(t *testing.T) {
	p, err := Validate([]Raw{rawRow(1, func(f map[string]string) {
		f[ColOrderID] = ""
		f[ColQuantity] = "0"
		f[ColProductRating] = "9.9"
	})})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(p.Invalid) != 1 {
		t.Fatalf("Expected 1 invalid row, got %d", len(p.Invalid))
	}
	reason := p.Invalid[0].Reason
	for _, want := range []string{"order_id", "quantity", "product_rating"} {
		if !strings.Contains(reason, want) {
			t.Errorf("Reason %q missing %q", reason, want)
		}
	}
}

func TestValidateOptionalDeliveryDate(t *testing.T) {
	// Column entirely absent from the header.
	p, err := Validate([]Raw{rawRow(1, func(f map[string]string) {
		delete(f, ColDeliveryDate)
	})})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(p.Valid) != 1 {
		t.Fatalf("Expected valid row without delivery_date column, got %d invalid", len(p.Invalid))
	}
	if p.Valid[0].DeliveryDate != nil {
		t.Error("Expected nil DeliveryDate")
	}

	// Column present but empty for this row.
	p, err = Validate([]Raw{rawRow(1, func(f map[string]string) {
		f[ColDeliveryDate] = ""
	})})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(p.Valid) != 1 || p.Valid[0].DeliveryDate != nil {
		t.Error("Expected valid row with nil DeliveryDate for empty value")
	}
}

func TestValidatePartitionCompleteness(t *testing.T) {
	withID := func(id string, mutate func(map[string]string)) func(map[string]string) {
		return func(f map[string]string) {
			f[ColOrderID] = id
			if mutate != nil {
				mutate(f)
			}
		}
	}

	rows := []Raw{
		rawRow(1, withID("ORDER00001", nil)),
		rawRow(2, withID("ORDER00002", func(f map[string]string) { f[ColQuantity] = "-1" })),
		rawRow(3, withID("ORDER00003", nil)),
		rawRow(4, withID("ORDER00004", func(f map[string]string) { f[ColCustomerEmail] = "nope" })),
		rawRow(5, withID("ORDER00005", nil)),
	}

	p, err := Validate(rows)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(p.Valid)+len(p.Invalid) != len(rows) {
		t.Errorf("Partition incomplete: %d + %d != %d", len(p.Valid), len(p.Invalid), len(rows))
	}

	// Stable partition: relative input order preserved in each output.
	if p.Invalid[0].Raw.Line != 2 || p.Invalid[1].Raw.Line != 4 {
		t.Errorf("Invalid rows out of order: lines %d, %d", p.Invalid[0].Raw.Line, p.Invalid[1].Raw.Line)
	}
	wantValidIDs := []string{"ORDER00001", "ORDER00003", "ORDER00005"}
	for i, rec := range p.Valid {
		if rec.OrderID != wantValidIDs[i] {
			t.Errorf("Valid[%d].OrderID = %s, want %s", i, rec.OrderID, wantValidIDs[i])
		}
	}
}
