package models

import "time"

// DeleteHistory keeps a trace of a removed Product until retention purges it.
type DeleteHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"index" json:"product_id"`
	Name       string    `gorm:"size:200" json:"name"`
	SerialCode string    `gorm:"size:32;index" json:"serial_code"`
	Weight     float64   `json:"weight"`
	ScanCount  int64     `json:"scan_count"`
	DeletedBy  string    `gorm:"size:100" json:"deleted_by"`
	DeletedAt  time.Time `gorm:"not null;index" json:"deleted_at"`
}

// DeleteBatch is the same trace for a removed Batch and its items.
type DeleteBatch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BatchID   uint      `gorm:"index" json:"batch_id"`
	Name      string    `gorm:"size:200" json:"name"`
	Weight    float64   `json:"weight"`
	Quantity  int       `json:"quantity"`
	ItemCount int64     `json:"item_count"`
	DeletedBy string    `gorm:"size:100" json:"deleted_by"`
	DeletedAt time.Time `gorm:"not null;index" json:"deleted_at"`
}
