package inventory

import (
	"context"
	"errors"
	"sync"

	"luxverify-backend/internal/models"
	"luxverify-backend/internal/store"
)

type fakeRepo struct {
	mu        sync.Mutex
	nextID    uint
	products  map[uint]*models.Product
	batches   map[uint]*models.Batch
	takenCode map[string]bool
	createErr error
	history   []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products:  map[uint]*models.Product{},
		batches:   map[uint]*models.Batch{},
		takenCode: map[string]bool{},
	}
}

func (f *fakeRepo) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) SerialCodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.takenCode[code] {
		return true, nil
	}
	for _, p := range f.products {
		if p.SerialCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = f.id()
	if p.QrRecord != nil {
		p.QrRecord.ID = f.id()
		p.QrRecord.ProductID = p.ID
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeRepo) GetProduct(_ context.Context, id uint) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepo) ListProducts(_ context.Context, _ store.ProductFilter) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]models.Product, 0, len(f.products))
	for id := uint(1); id <= f.nextID; id++ {
		if p, ok := f.products[id]; ok {
			rows = append(rows, *p)
		}
	}
	return rows, int64(len(rows)), nil
}

func (f *fakeRepo) DeleteProduct(_ context.Context, id uint, deletedBy string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(f.products, id)
	f.history = append(f.history, p.SerialCode+" by "+deletedBy)
	return p, nil
}

func (f *fakeRepo) ListScanLogs(_ context.Context, productID uint, _ int) ([]models.ScanLog, error) {
	return []models.ScanLog{{ID: 1, QrRecordID: productID, IP: "10.0.0.1"}}, nil
}

func (f *fakeRepo) UniqCodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.takenCode[code] {
		return true, nil
	}
	for _, b := range f.batches {
		for _, it := range b.Items {
			if it.UniqCode == code {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateBatch(_ context.Context, b *models.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	b.ID = f.id()
	for i := range b.Items {
		b.Items[i].ID = f.id()
		b.Items[i].BatchID = b.ID
	}
	f.batches[b.ID] = b
	return nil
}

func (f *fakeRepo) GetBatch(_ context.Context, id uint) (*models.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.batches[id]; ok {
		return b, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepo) ListBatches(_ context.Context) ([]store.BatchSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []store.BatchSummary
	for id := uint(1); id <= f.nextID; id++ {
		if b, ok := f.batches[id]; ok {
			rows = append(rows, store.BatchSummary{Batch: *b, ItemCount: int64(len(b.Items))})
		}
	}
	return rows, nil
}

func (f *fakeRepo) removeBatch(b *models.Batch, res *store.DeleteResult) []string {
	var urls []string
	for _, it := range b.Items {
		urls = append(urls, it.QrImageURL)
	}
	res.Batches++
	res.Items += int64(len(b.Items))
	delete(f.batches, b.ID)
	return urls
}

func (f *fakeRepo) DeleteBatch(_ context.Context, id uint, _ string) (store.DeleteResult, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return store.DeleteResult{}, nil, store.ErrNotFound
	}
	var res store.DeleteResult
	urls := f.removeBatch(b, &res)
	return res, urls, nil
}

func (f *fakeRepo) DeleteAllBatches(_ context.Context, _ string) (store.DeleteResult, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res store.DeleteResult
	var urls []string
	for _, b := range f.batches {
		urls = append(urls, f.removeBatch(b, &res)...)
	}
	return res, urls, nil
}

type memAssets struct {
	mu        sync.Mutex
	files     map[string][]byte
	putErr    error
	deleteErr error
	failAfter int
	puts      int
}

func newMemAssets() *memAssets {
	return &memAssets{files: map[string][]byte{}, failAfter: -1}
}

func (m *memAssets) Put(_ context.Context, key string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil || (m.failAfter >= 0 && m.puts >= m.failAfter) {
		return "", errors.New("disk full")
	}
	m.puts++
	url := "/assets/" + key
	m.files[url] = data
	return url, nil
}

func (m *memAssets) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, url)
	return nil
}

func (m *memAssets) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// scriptedCodes hands out codes in order, then repeats the last one.
type scriptedCodes struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (s *scriptedCodes) Resolve(supplied string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if supplied != "" {
		return supplied, false, nil
	}
	i := s.calls
	if i >= len(s.codes) {
		i = len(s.codes) - 1
	}
	s.calls++
	return s.codes[i], true, nil
}

// racingRepo sees none of the codes committed by a concurrent create, so
// the collision only surfaces at insert time, as with the unique index.
type racingRepo struct {
	*fakeRepo
}

func (r racingRepo) SerialCodeExists(context.Context, string) (bool, error) { return false, nil }
func (r racingRepo) UniqCodeExists(context.Context, string) (bool, error)   { return false, nil }

func (r racingRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	if taken, _ := r.fakeRepo.SerialCodeExists(ctx, p.SerialCode); taken {
		return store.ErrDuplicate
	}
	return r.fakeRepo.CreateProduct(ctx, p)
}

func (r racingRepo) CreateBatch(ctx context.Context, b *models.Batch) error {
	for _, it := range b.Items {
		if taken, _ := r.fakeRepo.UniqCodeExists(ctx, it.UniqCode); taken {
			return store.ErrDuplicate
		}
	}
	return r.fakeRepo.CreateBatch(ctx, b)
}
