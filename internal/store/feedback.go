package store

import (
	"context"

	"luxverify-backend/internal/models"
)

func (s *Store) CreateFeedback(ctx context.Context, entry *models.FeedbackEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *Store) ListFeedback(ctx context.Context, limit int) ([]models.FeedbackEntry, error) {
	if limit < 1 || limit > 1000 {
		limit = 200
	}
	var rows []models.FeedbackEntry
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
