package export

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sufscan/receipt-processor/internal/entity"
)

type stubRepo struct {
	receipts []entity.Receipt
	items    map[uuid.UUID][]entity.Item
	from, to *time.Time
}

func (s *stubRepo) Save(context.Context, uuid.UUID, *entity.NormalizedReceipt) (*entity.Receipt, error) {
	panic("not used")
}

func (s *stubRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (*entity.Receipt, error) {
	panic("not used")
}

func (s *stubRepo) ListByAPIKey(context.Context, uuid.UUID, int) ([]entity.Receipt, error) {
	panic("not used")
}

func (s *stubRepo) ListForExport(_ context.Context, _ uuid.UUID, from, to *time.Time) ([]entity.Receipt, error) {
	s.from, s.to = from, to
	return s.receipts, nil
}

func (s *stubRepo) ListItems(_ context.Context, id uuid.UUID) ([]entity.Item, error) {
	return s.items[id], nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestExportReceiptsXLSX(t *testing.T) {
	recID := uuid.New()
	total := dec("300.00")
	repo := &stubRepo{
		receipts: []entity.Receipt{{
			ID:             recID,
			StoreName:      "Prodavnica 1",
			TaxID:          "123456789",
			ReceiptCounter: "124/586",
			TotalAmount:    &total,
			ProcessedAt:    time.Date(2026, 5, 10, 12, 30, 0, 0, time.UTC),
		}},
		items: map[uuid.UUID][]entity.Item{
			recID: {
				{Name: "Hleb", Quantity: dec("2"), UnitPrice: dec("150.00"), Total: dec("300.00"), TaxLabel: "Đ"},
				{Name: "Mleko", Quantity: dec("1"), UnitPrice: dec("99.99"), Total: dec("99.99"), TaxLabel: "E"},
			},
		},
	}

	svc := NewService(repo, slog.Default())
	out, err := svc.ExportReceiptsXLSX(context.Background(), uuid.New(), nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two item rows

	assert.Equal(t, "Store", rows[0][1])
	assert.Equal(t, "Prodavnica 1", rows[1][1])
	assert.Equal(t, "Hleb", rows[1][4])
	assert.Equal(t, "150.00", rows[1][6])
	assert.Equal(t, "300.00", rows[1][7])
	assert.Equal(t, "Mleko", rows[2][4])
	assert.Equal(t, "99.99", rows[2][7])
}

func TestExportReceiptWithoutItemsGetsSummaryRow(t *testing.T) {
	total := dec("499.99")
	repo := &stubRepo{
		receipts: []entity.Receipt{{
			ID:          uuid.New(),
			StoreName:   "Kiosk",
			TotalAmount: &total,
			ProcessedAt: time.Now().UTC(),
		}},
		items: map[uuid.UUID][]entity.Item{},
	}

	svc := NewService(repo, slog.Default())
	out, err := svc.ExportReceiptsXLSX(context.Background(), uuid.New(), nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kiosk", rows[1][1])
	assert.Equal(t, "499.99", rows[1][7])
}

func TestExportDateWindowDefaultsEndToToday(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, slog.Default())

	from := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	_, err := svc.ExportReceiptsXLSX(context.Background(), uuid.New(), &from, nil)
	require.NoError(t, err)

	require.NotNil(t, repo.from)
	require.NotNil(t, repo.to)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), *repo.from)
	assert.True(t, repo.to.After(*repo.from))
}
