//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minidataplatform/sales-etl/internal/logging"
	"github.com/minidataplatform/sales-etl/internal/transform"
)

// BatchResult reports how many rows a batch touched in each table.
// Upserted counts include both inserts and in-place updates.
type BatchResult struct {
	Customers int
	Products  int
	Dates     int
	Facts     int
}

// Writer performs idempotent upserts into the star schema. All writes
// for one batch happen inside a single transaction; cross-run safety
// relies on the store's native ON CONFLICT mechanism, not in-process
// locks.
type Writer struct {
	pool *pgxpool.Pool
}

// NewWriter creates a Writer on the given connection pool.
func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// productKey is the natural key of the product dimension.
type productKey struct {
	title    string
	category string
}

// WriteBatch upserts one transformed batch: dimensions first (customer,
// product, date), then facts referencing the resolved surrogate keys.
// Either the whole batch lands or none of it does.
func (w *Writer) WriteBatch(ctx context.Context, rows []transform.Row) (BatchResult, error) {
	var res BatchResult
	if len(rows) == 0 {
		return res, nil
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	customerIDs, err := w.upsertCustomers(ctx, tx, rows)
	if err != nil {
		return res, err
	}
	res.Customers = len(customerIDs)

	productIDs, err := w.upsertProducts(ctx, tx, rows)
	if err != nil {
		return res, err
	}
	res.Products = len(productIDs)

	dateIDs, err := w.upsertDates(ctx, tx, rows)
	if err != nil {
		return res, err
	}
	res.Dates = len(dateIDs)

	facts, err := w.upsertFacts(ctx, tx, rows, customerIDs, productIDs, dateIDs)
	if err != nil {
		return res, err
	}
	res.Facts = facts

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("commit transaction: %w", err)
	}

	logging.Debug().
		Int("customers", res.Customers).
		Int("products", res.Products).
		Int("dates", res.Dates).
		Int("facts", res.Facts).
		Msg("Batch upserted")

	return res, nil
}

// upsertCustomers resolves each distinct email hash to a surrogate key,
// keeping the first sighting within the batch and overwriting non-key
// fields on conflict (last write wins across batches).
func (w *Writer) upsertCustomers(ctx context.Context, tx pgx.Tx, rows []transform.Row) (map[string]int32, error) {
	ids := make(map[string]int32)
	for _, row := range rows {
		if _, seen := ids[row.EmailHash]; seen {
			continue
		}
		var id int32
		err := tx.QueryRow(ctx, `
            INSERT INTO dim_customer (customer_name, email_hash, phone_redacted, address_redacted)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (email_hash)
            DO UPDATE SET
                customer_name = EXCLUDED.customer_name,
                phone_redacted = EXCLUDED.phone_redacted,
                address_redacted = EXCLUDED.address_redacted,
                updated_at = CURRENT_TIMESTAMP
            RETURNING customer_id
        `, row.CustomerName, row.EmailHash, row.PhoneRedacted, row.AddressRedacted).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("upsert customer %s: %w", row.EmailHash, err)
		}
		ids[row.EmailHash] = id
	}
	return ids, nil
}

// upsertProducts resolves each distinct (title, category) pair to a
// surrogate key.
func (w *Writer) upsertProducts(ctx context.Context, tx pgx.Tx, rows []transform.Row) (map[productKey]int32, error) {
	ids := make(map[productKey]int32)
	for _, row := range rows {
		key := productKey{title: row.ProductTitle, category: row.ProductCategory}
		if _, seen := ids[key]; seen {
			continue
		}
		var id int32
		err := tx.QueryRow(ctx, `
            INSERT INTO dim_product (product_title, product_category, product_rating, is_best_seller)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (product_title, product_category)
            DO UPDATE SET
                product_rating = EXCLUDED.product_rating,
                is_best_seller = EXCLUDED.is_best_seller,
                updated_at = CURRENT_TIMESTAMP
            RETURNING product_id
        `, row.ProductTitle, row.ProductCategory, row.ProductRating, row.IsBestSeller).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("upsert product %q/%q: %w", row.ProductTitle, row.ProductCategory, err)
		}
		ids[key] = id
	}
	return ids, nil
}

// upsertDates creates any missing date dimension rows and resolves all
// touched dates (order and delivery) to surrogate keys. Existing rows
// are never modified: derived calendar fields are immutable.
func (w *Writer) upsertDates(ctx context.Context, tx pgx.Tx, rows []transform.Row) (map[time.Time]int32, error) {
	distinct := make(map[time.Time]struct{})
	for _, row := range rows {
		distinct[row.OrderDate] = struct{}{}
		if row.DeliveryDate != nil {
			distinct[*row.DeliveryDate] = struct{}{}
		}
	}

	ids := make(map[time.Time]int32, len(distinct))
	for date := range distinct {
		_, err := tx.Exec(ctx, `
            INSERT INTO dim_date
                (date, year, month, day, quarter, day_of_week, week_of_year, is_weekend)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT (date) DO NOTHING
        `, date, date.Year(), int(date.Month()), date.Day(),
			(int(date.Month())-1)/3+1,
			mondayIndexed(date), isoWeek(date), isWeekend(date))
		if err != nil {
			return nil, fmt.Errorf("upsert date %s: %w", date.Format("2006-01-02"), err)
		}

		var id int32
		err = tx.QueryRow(ctx, `
            SELECT date_id FROM dim_date WHERE date = $1
        `, date).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("resolve date %s: %w", date.Format("2006-01-02"), err)
		}
		ids[date] = id
	}
	return ids, nil
}

// upsertFacts writes one fact row per input row, keyed by order_id. On
// conflict every non-key measure column is overwritten: the incoming
// batch is authoritative.
func (w *Writer) upsertFacts(
	ctx context.Context,
	tx pgx.Tx,
	rows []transform.Row,
	customerIDs map[string]int32,
	productIDs map[productKey]int32,
	dateIDs map[time.Time]int32,
) (int, error) {
	count := 0
	for _, row := range rows {
		customerID, ok := customerIDs[row.EmailHash]
		if !ok {
			return count, fmt.Errorf("order %s: unresolved customer key", row.OrderID)
		}
		productID, ok := productIDs[productKey{title: row.ProductTitle, category: row.ProductCategory}]
		if !ok {
			return count, fmt.Errorf("order %s: unresolved product key", row.OrderID)
		}
		orderDateID, ok := dateIDs[row.OrderDate]
		if !ok {
			return count, fmt.Errorf("order %s: unresolved order date key", row.OrderID)
		}

		var deliveryDateID *int32
		if row.DeliveryDate != nil {
			id, ok := dateIDs[*row.DeliveryDate]
			if !ok {
				return count, fmt.Errorf("order %s: unresolved delivery date key", row.OrderID)
			}
			deliveryDateID = &id
		}

		_, err := tx.Exec(ctx, `
            INSERT INTO fact_sales (
                order_id, customer_id, product_id, order_date_id, delivery_date_id,
                quantity, discounted_price, original_price, discount_percentage,
                profit, data_collected_at
            )
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
            ON CONFLICT (order_id)
            DO UPDATE SET
                customer_id = EXCLUDED.customer_id,
                product_id = EXCLUDED.product_id,
                order_date_id = EXCLUDED.order_date_id,
                delivery_date_id = EXCLUDED.delivery_date_id,
                quantity = EXCLUDED.quantity,
                discounted_price = EXCLUDED.discounted_price,
                original_price = EXCLUDED.original_price,
                discount_percentage = EXCLUDED.discount_percentage,
                profit = EXCLUDED.profit,
                data_collected_at = EXCLUDED.data_collected_at,
                updated_at = CURRENT_TIMESTAMP
        `, row.OrderID, customerID, productID, orderDateID, deliveryDateID,
			row.Quantity, row.DiscountedPrice, row.OriginalPrice, row.DiscountPercentage,
			row.Profit, row.DataCollectedAt)
		if err != nil {
			return count, fmt.Errorf("upsert fact %s: %w", row.OrderID, err)
		}
		count++
	}
	return count, nil
}

// mondayIndexed returns the day of week with Monday = 0, matching the
// convention of the historical loader.
func mondayIndexed(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func isoWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

func isWeekend(t time.Time) bool {
	return mondayIndexed(t) >= 5
}
