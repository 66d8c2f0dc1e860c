//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package record defines the sales record schema and row validation.
package record

import (
	"strings"
	"time"
)

// Column names as they appear in the CSV header.
const (
	ColOrderID            = "order_id"
	ColCustomerName       = "customer_name"
	ColCustomerEmail      = "customer_email"
	ColCustomerPhone      = "customer_phone"
	ColCustomerAddress    = "customer_address"
	ColProductTitle       = "product_title"
	ColProductRating      = "product_rating"
	ColDiscountedPrice    = "discounted_price"
	ColOriginalPrice      = "original_price"
	ColDiscountPercentage = "discount_percentage"
	ColIsBestSeller       = "is_best_seller"
	ColDeliveryDate       = "delivery_date"
	ColDataCollectedAt    = "data_collected_at"
	ColProductCategory    = "product_category"
	ColQuantity           = "quantity"
	ColOrderDate          = "order_date"
)

// DateLayout is the canonical date format for all date-valued columns.
const DateLayout = "2006-01-02"

// Columns is the canonical column order, matching the upstream data
// generator's CSV layout.
var Columns = []string{
	ColOrderID,
	ColCustomerName,
	ColCustomerEmail,
	ColCustomerPhone,
	ColCustomerAddress,
	ColProductTitle,
	ColProductRating,
	ColDiscountedPrice,
	ColOriginalPrice,
	ColDiscountPercentage,
	ColIsBestSeller,
	ColDeliveryDate,
	ColDataCollectedAt,
	ColProductCategory,
	ColQuantity,
	ColOrderDate,
}

// RequiredColumns lists the columns that must be present in the header.
// delivery_date is the only optional column: sources that have not yet
// scheduled delivery omit it entirely.
var RequiredColumns = []string{
	ColOrderID,
	ColCustomerName,
	ColCustomerEmail,
	ColCustomerPhone,
	ColCustomerAddress,
	ColProductTitle,
	ColProductRating,
	ColDiscountedPrice,
	ColOriginalPrice,
	ColDiscountPercentage,
	ColIsBestSeller,
	ColDataCollectedAt,
	ColProductCategory,
	ColQuantity,
	ColOrderDate,
}

// Raw is one unvalidated CSV row, keyed by header column name.
type Raw struct {
	// Line is the 1-based data row number within the source file
	// (excluding the header), used for failure context.
	Line int

	Fields map[string]string
}

// Get returns the trimmed value of a column, or "" if the column is
// absent from the source header.
func (r Raw) Get(col string) string {
	return strings.TrimSpace(r.Fields[col])
}

// Has reports whether the column was present in the source header.
func (r Raw) Has(col string) bool {
	_, ok := r.Fields[col]
	return ok
}

// SalesRecord is one validated retail transaction line.
type SalesRecord struct {
	OrderID            string
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	CustomerAddress    string
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
}
