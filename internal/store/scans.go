package store

import (
	"context"

	"luxverify-backend/internal/models"

	"gorm.io/gorm"
)

// RecordProductScan atomically bumps the record's counter and appends a scan
// log. Either both happen or neither does. The new counter value is returned.
func (s *Store) RecordProductScan(ctx context.Context, recordID uint, info ScanInfo) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		res := tx.Model(&models.QrRecord{}).Where("id = ?", recordID).Updates(map[string]interface{}{
			"scan_count":      gorm.Expr("scan_count + ?", 1),
			"last_scanned_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		log := models.ScanLog{
			QrRecordID: recordID,
			ScannedAt:  now,
			IP:         truncate(info.IP, 64),
			UserAgent:  truncate(info.UserAgent, 512),
		}
		if err := tx.Create(&log).Error; err != nil {
			return err
		}

		return tx.Model(&models.QrRecord{}).Select("scan_count").Where("id = ?", recordID).Scan(&count).Error
	})
	return count, translate(err)
}

// RecordItemScan is RecordProductScan for gram items.
func (s *Store) RecordItemScan(ctx context.Context, itemID uint, info ScanInfo) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		res := tx.Model(&models.Item{}).Where("id = ?", itemID).Updates(map[string]interface{}{
			"scan_count":      gorm.Expr("scan_count + ?", 1),
			"last_scanned_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		log := models.GramScanLog{
			ItemID:    itemID,
			ScannedAt: now,
			IP:        truncate(info.IP, 64),
			UserAgent: truncate(info.UserAgent, 512),
		}
		if err := tx.Create(&log).Error; err != nil {
			return err
		}

		return tx.Model(&models.Item{}).Select("scan_count").Where("id = ?", itemID).Scan(&count).Error
	})
	return count, translate(err)
}
