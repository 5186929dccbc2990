package store

import (
	"context"

	"luxverify-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeleteResult counts the rows removed by a batch deletion.
type DeleteResult struct {
	Batches  int64 `json:"batches"`
	Items    int64 `json:"items"`
	ScanLogs int64 `json:"scan_logs"`
}

// BatchSummary is a batch with the number of items still attached to it.
type BatchSummary struct {
	models.Batch
	ItemCount  int64 `json:"item_count"`
	TotalScans int64 `json:"total_scans"`
}

func (s *Store) UniqCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Item{}).Where("uniq_code = ?", code).Count(&count).Error
	return count > 0, err
}

// CreateBatch inserts the batch and all of its items in one transaction.
func (s *Store) CreateBatch(ctx context.Context, b *models.Batch) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{CreateBatchSize: 200}).Create(b).Error
	}))
}

func (s *Store) GetBatch(ctx context.Context, id uint) (*models.Batch, error) {
	var b models.Batch
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&b, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *Store) ListBatches(ctx context.Context) ([]BatchSummary, error) {
	var rows []BatchSummary
	err := s.db.WithContext(ctx).
		Model(&models.Batch{}).
		Select("batches.*, COUNT(items.id) AS item_count, COALESCE(SUM(items.scan_count), 0) AS total_scans").
		Joins("LEFT JOIN items ON items.batch_id = batches.id").
		Group("batches.id").
		Order("batches.created_at DESC, batches.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (s *Store) FindItemByCode(ctx context.Context, code string) (*models.Item, error) {
	var it models.Item
	err := s.db.WithContext(ctx).Preload("Batch").Where("uniq_code = ?", code).First(&it).Error
	if err != nil {
		return nil, translate(err)
	}
	return &it, nil
}

// AllItems returns every item with its batch. Used by the export.
func (s *Store) AllItems(ctx context.Context) ([]models.Item, error) {
	var rows []models.Item
	err := s.db.WithContext(ctx).Preload("Batch").Order("batch_id ASC, id ASC").Find(&rows).Error
	return rows, err
}

// DeleteBatch removes one batch with its items and their scan logs.
func (s *Store) DeleteBatch(ctx context.Context, id uint, deletedBy string) (DeleteResult, []string, error) {
	res, urls, err := s.deleteBatches(ctx, deletedBy, func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	})
	if err == nil && res.Batches == 0 {
		return res, nil, ErrNotFound
	}
	return res, urls, err
}

// DeleteAllBatches removes every batch, item and gram scan log.
func (s *Store) DeleteAllBatches(ctx context.Context, deletedBy string) (DeleteResult, []string, error) {
	return s.deleteBatches(ctx, deletedBy, func(db *gorm.DB) *gorm.DB { return db })
}

// deleteBatches resolves the affected batch and item ids first, then deletes
// children before parents: scan logs, items, batches. A DeleteBatch row is
// written for every removed batch. The QR image URLs of the removed items are
// returned for cleanup after commit.
func (s *Store) deleteBatches(ctx context.Context, deletedBy string, scope func(*gorm.DB) *gorm.DB) (DeleteResult, []string, error) {
	var result DeleteResult
	var urls []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batches []models.Batch
		if err := scope(tx.Model(&models.Batch{})).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Order("id ASC").
			Find(&batches).Error; err != nil {
			return err
		}
		if len(batches) == 0 {
			return nil
		}

		batchIDs := make([]uint, 0, len(batches))
		for _, b := range batches {
			batchIDs = append(batchIDs, b.ID)
		}

		var items []models.Item
		if err := tx.Select("id", "batch_id", "qr_image_url").
			Where("batch_id IN ?", batchIDs).
			Find(&items).Error; err != nil {
			return err
		}
		itemIDs := make([]uint, 0, len(items))
		perBatch := make(map[uint]int64, len(batches))
		for _, it := range items {
			itemIDs = append(itemIDs, it.ID)
			perBatch[it.BatchID]++
			if it.QrImageURL != "" {
				urls = append(urls, it.QrImageURL)
			}
		}

		for _, chunk := range chunkIDs(itemIDs, 1000) {
			res := tx.Where("item_id IN ?", chunk).Delete(&models.GramScanLog{})
			if res.Error != nil {
				return res.Error
			}
			result.ScanLogs += res.RowsAffected
		}
		for _, chunk := range chunkIDs(itemIDs, 1000) {
			res := tx.Where("id IN ?", chunk).Delete(&models.Item{})
			if res.Error != nil {
				return res.Error
			}
			result.Items += res.RowsAffected
		}

		res := tx.Where("id IN ?", batchIDs).Delete(&models.Batch{})
		if res.Error != nil {
			return res.Error
		}
		result.Batches = res.RowsAffected

		now := s.now()
		history := make([]models.DeleteBatch, 0, len(batches))
		for _, b := range batches {
			history = append(history, models.DeleteBatch{
				BatchID:   b.ID,
				Name:      b.Name,
				Weight:    b.Weight,
				Quantity:  b.Quantity,
				ItemCount: perBatch[b.ID],
				DeletedBy: deletedBy,
				DeletedAt: now,
			})
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return DeleteResult{}, nil, translate(err)
	}
	return result, urls, nil
}

func chunkIDs(ids []uint, size int) [][]uint {
	var chunks [][]uint
	for len(ids) > 0 {
		n := size
		if len(ids) < n {
			n = len(ids)
		}
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}
