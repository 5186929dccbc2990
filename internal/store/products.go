package store

import (
	"context"
	"errors"
	"strings"

	"luxverify-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Query   string
	Page    int
	PerPage int
}

func (s *Store) SerialCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).Where("serial_code = ?", code).Count(&count).Error
	return count > 0, err
}

// CreateProduct inserts the product and its QrRecord in one transaction.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(p).Error
	}))
}

func (s *Store) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Preload("QrRecord").First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) FindProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Preload("QrRecord").Where("serial_code = ?", code).First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(serial_code) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 500 {
		perPage = 50
	}

	var rows []models.Product
	err := q.Preload("QrRecord").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rows).Error
	return rows, total, err
}

// AllProducts returns every product with its record, oldest first. Used by the export.
func (s *Store) AllProducts(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := s.db.WithContext(ctx).Preload("QrRecord").Order("id ASC").Find(&rows).Error
	return rows, err
}

// DeleteProduct removes the product, its record and scan logs, and writes a
// DeleteHistory row, all in one transaction. The deleted product (with its
// record) is returned so the caller can clean up the stored image.
func (s *Store) DeleteProduct(ctx context.Context, id uint, deletedBy string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}

		var rec models.QrRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("product_id = ?", p.ID).First(&rec).Error
		switch {
		case err == nil:
			p.QrRecord = &rec
			if err := tx.Where("qr_record_id = ?", rec.ID).Delete(&models.ScanLog{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.QrRecord{}, rec.ID).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// legacy product without a record
		default:
			return err
		}

		if err := tx.Delete(&models.Product{}, p.ID).Error; err != nil {
			return err
		}

		history := models.DeleteHistory{
			ProductID:  p.ID,
			Name:       p.Name,
			SerialCode: p.SerialCode,
			Weight:     p.Weight,
			DeletedBy:  deletedBy,
			DeletedAt:  s.now(),
		}
		if p.QrRecord != nil {
			history.ScanCount = p.QrRecord.ScanCount
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) ListScanLogs(ctx context.Context, productID uint, limit int) ([]models.ScanLog, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	var logs []models.ScanLog
	err := s.db.WithContext(ctx).
		Joins("JOIN qr_records ON qr_records.id = scan_logs.qr_record_id").
		Where("qr_records.product_id = ?", productID).
		Order("scan_logs.scanned_at DESC, scan_logs.id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
