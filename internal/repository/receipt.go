// Package repository persists normalized receipts and their line items.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sufscan/receipt-processor/constants"
	"github.com/sufscan/receipt-processor/internal/entity"
	"github.com/sufscan/receipt-processor/internal/journal"
)

// ErrNotFound is returned when a receipt does not exist for the caller.
var ErrNotFound = errors.New("receipt not found")

// ReceiptRepository is the persistence behavior the server depends on.
type ReceiptRepository interface {
	Save(ctx context.Context, apiKey uuid.UUID, rec *entity.NormalizedReceipt) (*entity.Receipt, error)
	GetByID(ctx context.Context, apiKey, id uuid.UUID) (*entity.Receipt, error)
	ListByAPIKey(ctx context.Context, apiKey uuid.UUID, limit int) ([]entity.Receipt, error)
	ListForExport(ctx context.Context, apiKey uuid.UUID, from, to *time.Time) ([]entity.Receipt, error)
	ListItems(ctx context.Context, receiptID uuid.UUID) ([]entity.Item, error)
}

// PGReceiptRepository is the pgx implementation.
type PGReceiptRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ ReceiptRepository = (*PGReceiptRepository)(nil)

func NewReceiptRepository(pool *pgxpool.Pool, logger *slog.Logger) *PGReceiptRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGReceiptRepository{pool: pool, logger: logger}
}

const receiptColumns = `id, x_api_key, tax_id, store_name, buyer_id, transaction_type,
receipt_type, total_amount, receipt_counter, processed_at, created_at`

// Save stores the receipt row and its line items in one transaction and
// returns the stored receipt.
func (r *PGReceiptRepository) Save(ctx context.Context, apiKey uuid.UUID, rec *entity.NormalizedReceipt) (*entity.Receipt, error) {
	source, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode source: %w", err)
	}

	request := rec.Section(string(constants.SectionFiscalizationRequest))
	result := rec.Section(string(constants.SectionFiscalizationResult))
	total := totalAmount(result)
	now := time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	stored := &entity.Receipt{
		APIKey:          apiKey,
		TaxID:           request["tax_id"],
		StoreName:       request["store_name"],
		BuyerID:         request["buyer_id"],
		TransactionType: request["transaction_type"],
		ReceiptType:     request["receipt_type"],
		TotalAmount:     total,
		ReceiptCounter:  result["receipt_counter"],
		ProcessedAt:     now,
		Source:          source,
	}

	err = tx.QueryRow(ctx, `
INSERT INTO receipts (
    x_api_key, processed_at, tax_id, store_name, buyer_id,
    transaction_type, receipt_type, total_amount, receipt_counter, source
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at`,
		apiKey, now, stored.TaxID, stored.StoreName, stored.BuyerID,
		stored.TransactionType, stored.ReceiptType, nullDecimal(total),
		stored.ReceiptCounter, source,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert receipt: %w", err)
	}

	for i, item := range rec.Items {
		var it entity.Item
		err = tx.QueryRow(ctx, `
INSERT INTO items (
    receipt_id, position, name, quantity, unit_price, total, tax_label, tax_rate
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at`,
			stored.ID, i, item.Name, item.Quantity, item.UnitPrice,
			item.Total, item.TaxLabel, item.TaxRate,
		).Scan(&it.ID, &it.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert item %d: %w", i, err)
		}
		it.ReceiptID = stored.ID
		it.Name = item.Name
		it.Quantity = item.Quantity
		it.UnitPrice = item.UnitPrice
		it.TaxLabel = item.TaxLabel
		it.TaxRate = item.TaxRate
		it.Total = item.Total
		stored.Items = append(stored.Items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("repository.receipt_saved", "receipt_id", stored.ID, "items", len(stored.Items))
	return stored, nil
}

// GetByID loads one receipt with its items, scoped to the caller's API key.
func (r *PGReceiptRepository) GetByID(ctx context.Context, apiKey, id uuid.UUID) (*entity.Receipt, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+receiptColumns+`
FROM receipts
WHERE id = $1 AND x_api_key = $2`, id, apiKey)

	rec, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select receipt: %w", err)
	}

	items, err := r.ListItems(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Items = items
	return rec, nil
}

// ListByAPIKey returns the caller's most recent receipts.
func (r *PGReceiptRepository) ListByAPIKey(ctx context.Context, apiKey uuid.UUID, limit int) ([]entity.Receipt, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
SELECT `+receiptColumns+`
FROM receipts
WHERE x_api_key = $1
ORDER BY created_at DESC
LIMIT $2`, apiKey, limit)
	if err != nil {
		return nil, fmt.Errorf("select receipts: %w", err)
	}
	defer rows.Close()
	return collectReceipts(rows)
}

// ListForExport returns the caller's receipts inside an optional date window,
// oldest first.
func (r *PGReceiptRepository) ListForExport(ctx context.Context, apiKey uuid.UUID, from, to *time.Time) ([]entity.Receipt, error) {
	query := `
SELECT ` + receiptColumns + `
FROM receipts
WHERE x_api_key = $1`
	args := []any{apiKey}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select receipts for export: %w", err)
	}
	defer rows.Close()
	return collectReceipts(rows)
}

// ListItems returns a receipt's items in printing order.
func (r *PGReceiptRepository) ListItems(ctx context.Context, receiptID uuid.UUID) ([]entity.Item, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, receipt_id, name, quantity, unit_price, total, tax_label, tax_rate, created_at
FROM items
WHERE receipt_id = $1
ORDER BY position ASC`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	var items []entity.Item
	for rows.Next() {
		var it entity.Item
		var taxRate decimal.NullDecimal
		if err := rows.Scan(&it.ID, &it.ReceiptID, &it.Name, &it.Quantity,
			&it.UnitPrice, &it.Total, &it.TaxLabel, &taxRate, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if taxRate.Valid {
			it.TaxRate = taxRate.Decimal
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*entity.Receipt, error) {
	var rec entity.Receipt
	var total decimal.NullDecimal
	err := row.Scan(&rec.ID, &rec.APIKey, &rec.TaxID, &rec.StoreName, &rec.BuyerID,
		&rec.TransactionType, &rec.ReceiptType, &total, &rec.ReceiptCounter,
		&rec.ProcessedAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if total.Valid {
		d := total.Decimal
		rec.TotalAmount = &d
	}
	return &rec, nil
}

func collectReceipts(rows pgx.Rows) ([]entity.Receipt, error) {
	var out []entity.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// totalAmount parses the normalized total out of the fiscalization result
// section, tolerating its locale formatting. Absent or unparseable values
// store as NULL rather than failing persistence.
func totalAmount(result map[string]string) *decimal.Decimal {
	raw, ok := result["total_amount"]
	if !ok || raw == "" {
		return nil
	}
	d, err := journal.ParseAmount(raw)
	if err != nil {
		return nil
	}
	return &d
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
