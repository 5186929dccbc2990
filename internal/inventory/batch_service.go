package inventory

import (
	"context"
	"errors"
	"strings"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/assets"
	"luxverify-backend/internal/models"
	"luxverify-backend/internal/qrcode"
	"luxverify-backend/internal/store"
	"luxverify-backend/internal/verify"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	MaxBatchQuantity = 1000

	// Root keys carry 128 random bits, the minimum cost is enough.
	rootKeyCost = bcrypt.MinCost
)

type BatchRepository interface {
	CodeIndex
	CreateBatch(ctx context.Context, b *models.Batch) error
	GetBatch(ctx context.Context, id uint) (*models.Batch, error)
	ListBatches(ctx context.Context) ([]store.BatchSummary, error)
	DeleteBatch(ctx context.Context, id uint, deletedBy string) (store.DeleteResult, []string, error)
	DeleteAllBatches(ctx context.Context, deletedBy string) (store.DeleteResult, []string, error)
}

type CreateBatchInput struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Weight      float64       `json:"weight" validate:"gt=0"`
	Quantity    int           `json:"quantity" validate:"min=1,max=1000"`
	WeightGroup string        `json:"weight_group" validate:"max=32"`
	QrMode      models.QrMode `json:"qr_mode" validate:"omitempty,oneof=plain labeled"`
	WithRootKey bool          `json:"with_root_key"`
}

// CreatedBatch is the creation result. RootKeys maps item codes to their
// plaintext root keys and is only ever returned here.
type CreatedBatch struct {
	Batch    *models.Batch
	RootKeys map[string]string
}

type BatchService struct {
	repo     BatchRepository
	codes    CodeSource
	renderer verify.Renderer
	assets   assets.Store
	baseURL  string
}

func NewBatchService(repo BatchRepository, codes CodeSource, renderer verify.Renderer, assetStore assets.Store, baseURL string) *BatchService {
	return &BatchService{repo: repo, codes: codes, renderer: renderer, assets: assetStore, baseURL: baseURL}
}

func newRootKey() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Create allocates a code per item, renders and stores every QR image, then
// persists the batch with all of its items in one transaction. Stored images
// are removed again if a later step fails.
func (s *BatchService) Create(ctx context.Context, in CreateBatchInput) (*CreatedBatch, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.WeightGroup = strings.TrimSpace(in.WeightGroup)
	if in.QrMode == "" {
		in.QrMode = models.QrModePlain
	}
	if err := apperr.ValidateStruct(&in, "invalid batch"); err != nil {
		return nil, err
	}

	batch := &models.Batch{
		Name:        in.Name,
		Weight:      in.Weight,
		Quantity:    in.Quantity,
		WeightGroup: in.WeightGroup,
		QrMode:      in.QrMode,
		Items:       make([]models.Item, 0, in.Quantity),
	}
	result := &CreatedBatch{Batch: batch}
	if in.WithRootKey {
		result.RootKeys = make(map[string]string, in.Quantity)
	}

	var stored []string
	fail := func(err error) (*CreatedBatch, error) {
		discardAssets(ctx, s.assets, stored...)
		return nil, err
	}

	seen := make(map[string]struct{}, in.Quantity)
	taken := codeTaken(s.repo)
	for i := 0; i < in.Quantity; i++ {
		code, err := allocateCode(ctx, s.codes, "", func(ctx context.Context, code string) (bool, error) {
			if _, dup := seen[code]; dup {
				return true, nil
			}
			return taken(ctx, code)
		})
		if err != nil {
			return fail(err)
		}
		seen[code] = struct{}{}

		png, err := verify.RenderItem(s.renderer, qrcode.VerificationURL(s.baseURL, code), batch)
		if err != nil {
			return fail(apperr.Dependency(err, "could not render qr code"))
		}
		url, err := s.assets.Put(ctx, assets.ItemKey(code), png)
		if err != nil {
			return fail(apperr.Dependency(err, "could not store qr image"))
		}
		stored = append(stored, url)

		item := models.Item{UniqCode: code, QrImageURL: url}
		if in.WithRootKey {
			key := newRootKey()
			hash, err := bcrypt.GenerateFromPassword([]byte(key), rootKeyCost)
			if err != nil {
				return fail(apperr.Dependency(err, "could not hash root key"))
			}
			item.RootKey = key
			item.RootKeyHash = string(hash)
			result.RootKeys[code] = key
		}
		batch.Items = append(batch.Items, item)
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fail(apperr.Conflict("code already in use"))
		}
		return fail(apperr.Dependency(err, "could not save batch"))
	}

	zap.L().Info("batch created",
		zap.Uint("batch_id", batch.ID),
		zap.Int("items", len(batch.Items)),
		zap.String("qr_mode", string(batch.QrMode)))
	return result, nil
}

func (s *BatchService) Get(ctx context.Context, id uint) (*models.Batch, error) {
	b, err := s.repo.GetBatch(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "batch not found", "could not load batch")
	}
	return b, nil
}

func (s *BatchService) List(ctx context.Context) ([]store.BatchSummary, error) {
	rows, err := s.repo.ListBatches(ctx)
	if err != nil {
		return nil, apperr.Dependency(err, "could not list batches")
	}
	return rows, nil
}

// Delete removes one batch with its items and scan logs, then their images.
func (s *BatchService) Delete(ctx context.Context, id uint, deletedBy string) (store.DeleteResult, error) {
	res, urls, err := s.repo.DeleteBatch(ctx, id, deletedBy)
	if err != nil {
		return store.DeleteResult{}, notFoundOr(err, "batch not found", "could not delete batch")
	}
	discardAssets(ctx, s.assets, urls...)
	zap.L().Info("batch deleted", zap.Uint("batch_id", id), zap.Int64("items", res.Items), zap.String("deleted_by", deletedBy))
	return res, nil
}

// DeleteAll removes every batch. An empty table is not an error.
func (s *BatchService) DeleteAll(ctx context.Context, deletedBy string) (store.DeleteResult, error) {
	res, urls, err := s.repo.DeleteAllBatches(ctx, deletedBy)
	if err != nil {
		return store.DeleteResult{}, apperr.Dependency(err, "could not delete batches")
	}
	discardAssets(ctx, s.assets, urls...)
	zap.L().Info("all batches deleted",
		zap.Int64("batches", res.Batches),
		zap.Int64("items", res.Items),
		zap.String("deleted_by", deletedBy))
	return res, nil
}
