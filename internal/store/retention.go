package store

import (
	"context"
	"time"

	"luxverify-backend/internal/models"

	"gorm.io/gorm"
)

type PurgeResult struct {
	DeleteHistories int64 `json:"delete_histories"`
	DeleteBatches   int64 `json:"delete_batches"`
}

// PurgeDeleteHistory removes audit rows strictly older than cutoff from both
// tables in one transaction.
func (s *Store) PurgeDeleteHistory(ctx context.Context, cutoff time.Time) (PurgeResult, error) {
	var result PurgeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("deleted_at < ?", cutoff).Delete(&models.DeleteHistory{})
		if res.Error != nil {
			return res.Error
		}
		result.DeleteHistories = res.RowsAffected

		res = tx.Where("deleted_at < ?", cutoff).Delete(&models.DeleteBatch{})
		if res.Error != nil {
			return res.Error
		}
		result.DeleteBatches = res.RowsAffected
		return nil
	})
	if err != nil {
		return PurgeResult{}, err
	}
	return result, nil
}

func (s *Store) ListDeleteHistory(ctx context.Context, limit int) ([]models.DeleteHistory, []models.DeleteBatch, error) {
	if limit < 1 || limit > 1000 {
		limit = 200
	}
	var products []models.DeleteHistory
	if err := s.db.WithContext(ctx).Order("deleted_at DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, nil, err
	}
	var batches []models.DeleteBatch
	if err := s.db.WithContext(ctx).Order("deleted_at DESC").Limit(limit).Find(&batches).Error; err != nil {
		return nil, nil, err
	}
	return products, batches, nil
}
