package admin

import (
	"context"
	"fmt"
	"time"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportRepository interface {
	AllProducts(ctx context.Context) ([]models.Product, error)
	AllItems(ctx context.Context) ([]models.Item, error)
}

var (
	productHeader = []any{"ID", "Name", "Weight", "Price", "Stock", "Serial Code", "Scan Count", "Last Scanned", "Created At"}
	itemHeader    = []any{"Batch", "Weight Group", "Code", "Scan Count", "Last Scanned"}
)

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func productRow(p *models.Product) []any {
	var price, stock any = "", ""
	if p.Price != nil {
		price = *p.Price
	}
	if p.Stock != nil {
		stock = *p.Stock
	}
	var scans int64
	var last *time.Time
	if p.QrRecord != nil {
		scans = p.QrRecord.ScanCount
		last = p.QrRecord.LastScannedAt
	}
	return []any{p.ID, p.Name, p.Weight, price, stock, p.SerialCode, scans, formatTime(last), formatTime(&p.CreatedAt)}
}

func itemRow(it *models.Item) []any {
	var batch, group string
	if it.Batch != nil {
		batch, group = it.Batch.Name, it.Batch.WeightGroup
	}
	return []any{batch, group, it.UniqCode, it.ScanCount, formatTime(it.LastScannedAt)}
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// BuildWorkbook writes a "Products" and an "Items" sheet.
func BuildWorkbook(products []models.Product, items []models.Item) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", "Products"); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet("Items"); err != nil {
		f.Close()
		return nil, err
	}

	productRows := make([][]any, 0, len(products))
	for i := range products {
		productRows = append(productRows, productRow(&products[i]))
	}
	itemRows := make([][]any, 0, len(items))
	for i := range items {
		itemRows = append(itemRows, itemRow(&items[i]))
	}

	if err := writeSheet(f, "Products", productHeader, productRows); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, "Items", itemHeader, itemRows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// GET /api/admin/export
func ExportHandler(repo ExportRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := repo.AllProducts(c.UserContext())
		if err != nil {
			return apperr.Dependency(err, "could not load products")
		}
		items, err := repo.AllItems(c.UserContext())
		if err != nil {
			return apperr.Dependency(err, "could not load items")
		}

		f, err := BuildWorkbook(products, items)
		if err != nil {
			return apperr.Dependency(err, "could not build export")
		}
		defer func() {
			if err := f.Close(); err != nil {
				zap.L().Warn("close export workbook", zap.Error(err))
			}
		}()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return apperr.Dependency(err, "could not write export")
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=products-%s.xlsx", time.Now().Format("20060102")))
		return c.Send(buf.Bytes())
	}
}
