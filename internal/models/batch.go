package models

import "time"

type QrMode string

const (
	QrModePlain   QrMode = "plain"
	QrModeLabeled QrMode = "labeled" // batch name printed under the code
)

// Batch is a production run of gram-based items.
type Batch struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:200;not null"`
	Weight      float64 `gorm:"not null"`
	Quantity    int     `gorm:"not null"`
	WeightGroup string  `gorm:"size:32;index"`
	QrMode      QrMode  `gorm:"size:16;not null;default:plain"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []Item `gorm:"constraint:OnDelete:CASCADE"`
}

type Item struct {
	ID            uint   `gorm:"primaryKey"`
	BatchID       uint   `gorm:"not null;index"`
	UniqCode      string `gorm:"size:32;not null;uniqueIndex"`
	RootKey       string `gorm:"size:64" json:"-"`
	RootKeyHash   string `gorm:"size:255" json:"-"`
	ScanCount     int64  `gorm:"not null;default:0"`
	LastScannedAt *time.Time
	QrImageURL    string `gorm:"size:1024"`
	CreatedAt     time.Time

	Batch        *Batch        `gorm:"foreignKey:BatchID"`
	GramScanLogs []GramScanLog `gorm:"constraint:OnDelete:CASCADE"`
}

// HasRootKey reports whether the item was issued with a secondary secret.
func (i *Item) HasRootKey() bool {
	return i.RootKeyHash != ""
}
