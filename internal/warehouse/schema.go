//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse implements the star-schema target and its
// idempotent, dependency-ordered upserts.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaVersion identifies the star-schema revision recorded in the
// metadata table at init time.
const SchemaVersion = "1"

// The star schema is a fixed external contract: dimension tables keyed
// by their natural keys, one fact table keyed by order_id.
const createSchemaSQL = `
-- Customer dimension: keyed by a stable hash of the normalized email.
-- Holds anonymized PII only.
CREATE TABLE IF NOT EXISTS dim_customer (
    customer_id      SERIAL PRIMARY KEY,
    customer_name    VARCHAR(255) NOT NULL,
    email_hash       VARCHAR(64) NOT NULL UNIQUE,
    phone_redacted   VARCHAR(50),
    address_redacted VARCHAR(500),
    created_at       TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMP NOT NULL DEFAULT NOW()
);

-- Product dimension: keyed by the (title, category) pair.
CREATE TABLE IF NOT EXISTS dim_product (
    product_id       SERIAL PRIMARY KEY,
    product_title    VARCHAR(500) NOT NULL,
    product_category VARCHAR(100) NOT NULL,
    product_rating   NUMERIC(2,1) CHECK (product_rating BETWEEN 1.0 AND 5.0),
    is_best_seller   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at       TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMP NOT NULL DEFAULT NOW(),
    UNIQUE (product_title, product_category)
);

-- Date dimension: one row per calendar date ever seen, derived fields
-- computed once at creation. Immutable after creation.
CREATE TABLE IF NOT EXISTS dim_date (
    date_id      SERIAL PRIMARY KEY,
    date         DATE NOT NULL UNIQUE,
    year         INTEGER NOT NULL,
    month        INTEGER NOT NULL,
    day          INTEGER NOT NULL,
    quarter      INTEGER NOT NULL,
    day_of_week  INTEGER NOT NULL,
    week_of_year INTEGER NOT NULL,
    is_weekend   BOOLEAN NOT NULL
);

-- Sales fact: one row per order_id; the unique constraint is the
-- idempotency key for re-processing.
CREATE TABLE IF NOT EXISTS fact_sales (
    sale_id             BIGSERIAL PRIMARY KEY,
    order_id            VARCHAR(50) NOT NULL UNIQUE,
    customer_id         INTEGER NOT NULL REFERENCES dim_customer(customer_id),
    product_id          INTEGER NOT NULL REFERENCES dim_product(product_id),
    order_date_id       INTEGER NOT NULL REFERENCES dim_date(date_id),
    delivery_date_id    INTEGER REFERENCES dim_date(date_id),
    quantity            INTEGER NOT NULL CHECK (quantity >= 1),
    discounted_price    NUMERIC(10,2) NOT NULL CHECK (discounted_price > 0),
    original_price      NUMERIC(10,2) NOT NULL CHECK (original_price > 0),
    discount_percentage INTEGER NOT NULL CHECK (discount_percentage BETWEEN 0 AND 100),
    profit              NUMERIC(10,2),
    data_collected_at   DATE NOT NULL,
    created_at          TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_fact_sales_customer ON fact_sales(customer_id);
CREATE INDEX IF NOT EXISTS idx_fact_sales_product ON fact_sales(product_id);
CREATE INDEX IF NOT EXISTS idx_fact_sales_order_date ON fact_sales(order_date_id);
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS fact_sales;
DROP TABLE IF EXISTS dim_customer;
DROP TABLE IF EXISTS dim_product;
DROP TABLE IF EXISTS dim_date;
`

// CreateSchema creates the star schema tables and indexes.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("failed to create star schema: %w", err)
	}
	return nil
}

// DropSchema drops all star schema tables.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, dropSchemaSQL); err != nil {
		return fmt.Errorf("failed to drop star schema: %w", err)
	}
	return nil
}
