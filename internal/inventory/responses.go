package inventory

import (
	"time"

	"luxverify-backend/internal/models"
	"luxverify-backend/internal/store"
)

type ProductResponse struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Weight        float64    `json:"weight"`
	Price         *float64   `json:"price"`
	Stock         *int       `json:"stock"`
	SerialCode    string     `json:"serial_code"`
	QrImageURL    string     `json:"qr_image_url"`
	ScanCount     int64      `json:"scan_count"`
	LastScannedAt *time.Time `json:"last_scanned_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toProductResponse(p *models.Product) ProductResponse {
	res := ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Weight:     p.Weight,
		Price:      p.Price,
		Stock:      p.Stock,
		SerialCode: p.SerialCode,
		CreatedAt:  p.CreatedAt,
	}
	if p.QrRecord != nil {
		res.QrImageURL = p.QrRecord.QrImageURL
		res.ScanCount = p.QrRecord.ScanCount
		res.LastScannedAt = p.QrRecord.LastScannedAt
	}
	return res
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
}

type ItemResponse struct {
	ID            uint       `json:"id"`
	UniqCode      string     `json:"uniq_code"`
	QrImageURL    string     `json:"qr_image_url"`
	ScanCount     int64      `json:"scan_count"`
	LastScannedAt *time.Time `json:"last_scanned_at"`
	HasRootKey    bool       `json:"has_root_key"`
	RootKey       string     `json:"root_key,omitempty"` // creation response only
}

func toItemResponse(it *models.Item) ItemResponse {
	return ItemResponse{
		ID:            it.ID,
		UniqCode:      it.UniqCode,
		QrImageURL:    it.QrImageURL,
		ScanCount:     it.ScanCount,
		LastScannedAt: it.LastScannedAt,
		HasRootKey:    it.HasRootKey(),
	}
}

type BatchResponse struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Weight      float64        `json:"weight"`
	Quantity    int            `json:"quantity"`
	WeightGroup string         `json:"weight_group"`
	QrMode      models.QrMode  `json:"qr_mode"`
	CreatedAt   time.Time      `json:"created_at"`
	ItemCount   int64          `json:"item_count"`
	TotalScans  int64          `json:"total_scans"`
	Items       []ItemResponse `json:"items,omitempty"`
}

func toBatchResponse(b *models.Batch) BatchResponse {
	res := BatchResponse{
		ID:          b.ID,
		Name:        b.Name,
		Weight:      b.Weight,
		Quantity:    b.Quantity,
		WeightGroup: b.WeightGroup,
		QrMode:      b.QrMode,
		CreatedAt:   b.CreatedAt,
		ItemCount:   int64(len(b.Items)),
		Items:       make([]ItemResponse, 0, len(b.Items)),
	}
	for i := range b.Items {
		res.TotalScans += b.Items[i].ScanCount
		res.Items = append(res.Items, toItemResponse(&b.Items[i]))
	}
	return res
}

func toBatchSummaryResponse(s store.BatchSummary) BatchResponse {
	return BatchResponse{
		ID:          s.ID,
		Name:        s.Name,
		Weight:      s.Weight,
		Quantity:    s.Quantity,
		WeightGroup: s.WeightGroup,
		QrMode:      s.QrMode,
		CreatedAt:   s.CreatedAt,
		ItemCount:   s.ItemCount,
		TotalScans:  s.TotalScans,
	}
}
