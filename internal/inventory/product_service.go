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

	"go.uber.org/zap"
)

type ProductRepository interface {
	CodeIndex
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error)
	DeleteProduct(ctx context.Context, id uint, deletedBy string) (*models.Product, error)
	ListScanLogs(ctx context.Context, productID uint, limit int) ([]models.ScanLog, error)
}

type CreateProductInput struct {
	Name       string   `json:"name" validate:"required,max=200"`
	Weight     float64  `json:"weight" validate:"gt=0"`
	Price      *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock      *int     `json:"stock" validate:"omitempty,gte=0"`
	SerialCode string   `json:"serial_code" validate:"max=32"`
}

type ProductService struct {
	repo     ProductRepository
	codes    CodeSource
	renderer verify.Renderer
	assets   assets.Store
	baseURL  string
}

func NewProductService(repo ProductRepository, codes CodeSource, renderer verify.Renderer, assetStore assets.Store, baseURL string) *ProductService {
	return &ProductService{repo: repo, codes: codes, renderer: renderer, assets: assetStore, baseURL: baseURL}
}

// Create issues a serial code, renders and stores its QR image, then persists
// the product with its QrRecord. Nothing is persisted when rendering or
// storage fails; the image of this attempt is removed again when persisting
// fails.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := apperr.ValidateStruct(&in, "invalid product"); err != nil {
		return nil, err
	}

	code, err := allocateCode(ctx, s.codes, in.SerialCode, codeTaken(s.repo))
	if err != nil {
		return nil, err
	}

	png, err := s.renderer.Encode(qrcode.VerificationURL(s.baseURL, code))
	if err != nil {
		return nil, apperr.Dependency(err, "could not render qr code")
	}
	url, err := s.assets.Put(ctx, assets.ProductKey(code), png)
	if err != nil {
		return nil, apperr.Dependency(err, "could not store qr image")
	}

	p := &models.Product{
		Name:       in.Name,
		Weight:     in.Weight,
		Price:      in.Price,
		Stock:      in.Stock,
		SerialCode: code,
		QrRecord: &models.QrRecord{
			SerialCode: code,
			QrImageURL: url,
		},
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		s.discardAsset(ctx, url)
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("code already in use")
		}
		return nil, apperr.Dependency(err, "could not save product")
	}

	zap.L().Info("product created", zap.Uint("product_id", p.ID), zap.String("code", code))
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "could not load product")
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, f store.ProductFilter) ([]models.Product, int64, error) {
	rows, total, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, 0, apperr.Dependency(err, "could not list products")
	}
	return rows, total, nil
}

func (s *ProductService) Scans(ctx context.Context, id uint, limit int) ([]models.ScanLog, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.repo.ListScanLogs(ctx, id, limit)
	if err != nil {
		return nil, apperr.Dependency(err, "could not load scan logs")
	}
	return logs, nil
}

// Delete removes the product, its record and scan logs in one transaction,
// then deletes the stored image. A failed image delete is only logged.
func (s *ProductService) Delete(ctx context.Context, id uint, deletedBy string) (*models.Product, error) {
	p, err := s.repo.DeleteProduct(ctx, id, deletedBy)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "could not delete product")
	}
	if p.QrRecord != nil {
		s.discardAsset(ctx, p.QrRecord.QrImageURL)
	}
	zap.L().Info("product deleted",
		zap.Uint("product_id", p.ID),
		zap.String("code", p.SerialCode),
		zap.String("deleted_by", deletedBy))
	return p, nil
}

func (s *ProductService) discardAsset(ctx context.Context, url string) {
	discardAssets(ctx, s.assets, url)
}

func discardAssets(ctx context.Context, assetStore assets.Store, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := assetStore.Delete(ctx, url); err != nil {
			zap.L().Warn("could not delete qr image", zap.String("url", url), zap.Error(err))
		}
	}
}

func notFoundOr(err error, notFound, failed string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Dependency(err, failed)
}
