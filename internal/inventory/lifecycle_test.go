package inventory

import (
	"context"

	"luxverify-backend/internal/models"
	"luxverify-backend/internal/store"
)

// lifecycleRepo lets the verification service read what the inventory
// services wrote into fakeRepo.
type lifecycleRepo struct {
	*fakeRepo
}

func (r *lifecycleRepo) FindProductByCode(_ context.Context, code string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SerialCode == code {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *lifecycleRepo) FindItemByCode(_ context.Context, code string) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		for i := range b.Items {
			if b.Items[i].UniqCode == code {
				it := b.Items[i]
				it.Batch = b
				return &it, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (r *lifecycleRepo) RecordProductScan(_ context.Context, recordID uint, _ store.ScanInfo) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.QrRecord != nil && p.QrRecord.ID == recordID {
			p.QrRecord.ScanCount++
			return p.QrRecord.ScanCount, nil
		}
	}
	return 0, store.ErrNotFound
}

func (r *lifecycleRepo) RecordItemScan(_ context.Context, itemID uint, _ store.ScanInfo) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		for i := range b.Items {
			if b.Items[i].ID == itemID {
				b.Items[i].ScanCount++
				return b.Items[i].ScanCount, nil
			}
		}
	}
	return 0, store.ErrNotFound
}
