// Package verify answers the public "is this item genuine?" question and
// renders the QR image for a known code.
package verify

import (
	"context"
	"errors"
	"strings"
	"time"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/codegen"
	"luxverify-backend/internal/fraud"
	"luxverify-backend/internal/models"
	"luxverify-backend/internal/qrcode"
	"luxverify-backend/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const counterfeitMessage = "possible counterfeit"

type Repository interface {
	FindProductByCode(ctx context.Context, code string) (*models.Product, error)
	FindItemByCode(ctx context.Context, code string) (*models.Item, error)
	RecordProductScan(ctx context.Context, recordID uint, info store.ScanInfo) (int64, error)
	RecordItemScan(ctx context.Context, itemID uint, info store.ScanInfo) (int64, error)
}

type Renderer interface {
	Encode(content string) ([]byte, error)
	EncodeLabeled(content, label string) ([]byte, error)
}

// PublicProduct is everything a customer may see about a verified code.
// Internal ids and root keys never leave the server.
type PublicProduct struct {
	Kind        string    `json:"kind"` // product or item
	Name        string    `json:"name"`
	Weight      float64   `json:"weight"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
	ScanCount   int64     `json:"scan_count"`
	WeightGroup string    `json:"weight_group,omitempty"`
	HasRootKey  bool      `json:"has_root_key,omitempty"`
}

type Result struct {
	Verified bool           `json:"verified"`
	Product  *PublicProduct `json:"product,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type Service struct {
	repo     Repository
	renderer Renderer
	monitor  fraud.Monitor
	baseURL  string
}

func NewService(repo Repository, renderer Renderer, monitor fraud.Monitor, baseURL string) *Service {
	if monitor == nil {
		monitor = fraud.LogMonitor{}
	}
	return &Service{repo: repo, renderer: renderer, monitor: monitor, baseURL: baseURL}
}

func normalizeCode(code string) (string, error) {
	code = codegen.Normalize(code)
	if code == "" {
		return "", apperr.Validation("code is required", map[string]string{"code": "is required"})
	}
	return code, nil
}

// Verify looks the code up as a product, then as an item. A hit is counted
// and logged atomically; a miss is reported to the fraud monitor only.
func (s *Service) Verify(ctx context.Context, code string, info store.ScanInfo) (*Result, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}

	if codegen.Validate(code) == nil {
		res, err := s.verifyProduct(ctx, code, info)
		if err == nil || !errors.Is(err, store.ErrNotFound) {
			return res, err
		}
		res, err = s.verifyItem(ctx, code, info)
		if err == nil || !errors.Is(err, store.ErrNotFound) {
			return res, err
		}
	}

	s.monitor.RecordMiss(ctx, code, info.IP)
	return nil, apperr.NotFound(counterfeitMessage)
}

func (s *Service) verifyProduct(ctx context.Context, code string, info store.ScanInfo) (*Result, error) {
	p, err := s.repo.FindProductByCode(ctx, code)
	if err != nil {
		return nil, lookupError(err)
	}
	if p.QrRecord == nil {
		zap.L().Error("product without verification record", zap.Uint("product_id", p.ID))
		return nil, store.ErrNotFound
	}

	count, err := s.repo.RecordProductScan(ctx, p.QrRecord.ID, info)
	if err != nil {
		return nil, lookupError(err)
	}

	return &Result{
		Verified: true,
		Product: &PublicProduct{
			Kind:      "product",
			Name:      p.Name,
			Weight:    p.Weight,
			Code:      p.SerialCode,
			CreatedAt: p.CreatedAt,
			ScanCount: count,
		},
	}, nil
}

func (s *Service) verifyItem(ctx context.Context, code string, info store.ScanInfo) (*Result, error) {
	it, err := s.repo.FindItemByCode(ctx, code)
	if err != nil {
		return nil, lookupError(err)
	}

	count, err := s.repo.RecordItemScan(ctx, it.ID, info)
	if err != nil {
		return nil, lookupError(err)
	}

	pub := &PublicProduct{
		Kind:       "item",
		Code:       it.UniqCode,
		CreatedAt:  it.CreatedAt,
		ScanCount:  count,
		HasRootKey: it.HasRootKey(),
	}
	if it.Batch != nil {
		pub.Name = it.Batch.Name
		pub.Weight = it.Batch.Weight
		pub.WeightGroup = it.Batch.WeightGroup
	}
	return &Result{Verified: true, Product: pub}, nil
}

// lookupError passes ErrNotFound through for the fallback chain and turns
// anything else into a dependency failure.
func lookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrNotFound
	}
	return apperr.Dependency(err, "verification temporarily unavailable")
}

// VerifyRootKey checks the secret printed under an item's scratch panel.
func (s *Service) VerifyRootKey(ctx context.Context, code, rootKey string) (bool, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return false, err
	}
	rootKey = strings.ToUpper(strings.TrimSpace(rootKey))
	if rootKey == "" {
		return false, apperr.Validation("root key is required", map[string]string{"root_key": "is required"})
	}

	it, err := s.repo.FindItemByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, apperr.NotFound(counterfeitMessage)
		}
		return false, apperr.Dependency(err, "verification temporarily unavailable")
	}
	if !it.HasRootKey() {
		return false, apperr.Validation("this item was issued without a root key", nil)
	}

	return bcrypt.CompareHashAndPassword([]byte(it.RootKeyHash), []byte(rootKey)) == nil, nil
}

// RenderQR re-renders the image for a known code. Rendering is deterministic,
// so the bytes match the stored asset.
func (s *Service) RenderQR(ctx context.Context, code string) ([]byte, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	link := qrcode.VerificationURL(s.baseURL, code)

	var png []byte
	p, err := s.repo.FindProductByCode(ctx, code)
	switch {
	case err == nil:
		png, err = s.renderer.Encode(qrcode.VerificationURL(s.baseURL, p.SerialCode))
	case errors.Is(err, store.ErrNotFound):
		var it *models.Item
		it, err = s.repo.FindItemByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("unknown code")
		}
		if err != nil {
			return nil, apperr.Dependency(err, "could not look up code")
		}
		png, err = RenderItem(s.renderer, link, it.Batch)
	default:
		return nil, apperr.Dependency(err, "could not look up code")
	}
	if err != nil {
		return nil, apperr.Dependency(err, "could not render qr code")
	}
	return png, nil
}

// RenderItem applies the batch's QR mode. Shared with batch creation so the
// stored asset and the on-demand image are identical.
func RenderItem(r Renderer, link string, batch *models.Batch) ([]byte, error) {
	if batch != nil && batch.QrMode == models.QrModeLabeled {
		return r.EncodeLabeled(link, batch.Name)
	}
	return r.Encode(link)
}
