package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/sufscan/receipt-processor/internal/entity"
	"github.com/sufscan/receipt-processor/internal/repository"
)

// Service is a tiny façade over the receipt repository that produces XLSX
// bytes for exports.
type Service struct {
	repo   repository.ReceiptRepository
	logger *slog.Logger
}

func NewService(repo repository.ReceiptRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportReceiptsXLSX returns an XLSX workbook (as bytes) for the given API key
// and date window. One row per line item; receipts without parsed items get a
// single summary row.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all receipts for the key.
func (s *Service) ExportReceiptsXLSX(ctx context.Context, apiKey uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize to date-only bounds in UTC, end of day inclusive.
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.repo.ListForExport(ctx, apiKey, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Receipts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Processed At",
		"Store",
		"Tax ID",
		"Receipt Counter",
		"Item",
		"Quantity",
		"Unit Price",
		"Total",
		"Tax Label",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	writeReceipt := func(row int, r entity.Receipt) {
		write(1, row, r.ProcessedAt.Format("2006-01-02 15:04:05"))
		write(2, row, r.StoreName)
		write(3, row, r.TaxID)
		write(4, row, r.ReceiptCounter)
	}

	row := 2
	for _, r := range recs {
		items, err := s.repo.ListItems(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("query items: %w", err)
		}

		if len(items) == 0 {
			writeReceipt(row, r)
			if r.TotalAmount != nil {
				write(8, row, r.TotalAmount.StringFixed(2))
			}
			row++
			continue
		}
		for _, it := range items {
			writeReceipt(row, r)
			write(5, row, it.Name)
			write(6, row, it.Quantity.String())
			write(7, row, it.UnitPrice.StringFixed(2))
			write(8, row, it.Total.StringFixed(2))
			write(9, row, it.TaxLabel)
			row++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 20) // processed at
	_ = f.SetColWidth(sheet, "B", "B", 28) // store
	_ = f.SetColWidth(sheet, "C", "D", 18) // tax id, counter
	_ = f.SetColWidth(sheet, "E", "E", 36) // item
	_ = f.SetColWidth(sheet, "F", "H", 12) // amounts

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"api_key", apiKey.String(),
		"receipts", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
