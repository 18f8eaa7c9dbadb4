package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// createTablesSQL mirrors the production schema. gen_random_uuid needs
// PostgreSQL 13+.
const createTablesSQL = `
CREATE TABLE IF NOT EXISTS receipts (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    x_api_key UUID NOT NULL,
    processed_at TIMESTAMP WITH TIME ZONE,
    tax_id VARCHAR(20),
    store_name TEXT,
    buyer_id TEXT,
    transaction_type VARCHAR(100),
    receipt_type VARCHAR(100),
    total_amount DECIMAL(15,2),
    receipt_counter VARCHAR(100),
    source JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    receipt_id UUID NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    quantity DECIMAL(10,3) NOT NULL,
    unit_price DECIMAL(15,2) NOT NULL,
    total DECIMAL(15,2) NOT NULL,
    tax_label VARCHAR(10),
    tax_rate DECIMAL(5,2)
);

CREATE INDEX IF NOT EXISTS idx_receipts_created_at ON receipts(created_at);
CREATE INDEX IF NOT EXISTS idx_receipts_x_api_key ON receipts(x_api_key);
CREATE INDEX IF NOT EXISTS idx_receipts_tax_id ON receipts(tax_id);
CREATE INDEX IF NOT EXISTS idx_items_receipt_id ON items(receipt_id);
CREATE INDEX IF NOT EXISTS idx_items_name ON items(name);
`

// CreateTables creates the receipts and items tables if they do not exist.
func CreateTables(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createTablesSQL)
	return err
}
