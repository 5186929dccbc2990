package models

import "time"

// QrRecord binds a Product's serial code to its QR image and scan statistics.
type QrRecord struct {
	ID            uint   `gorm:"primaryKey"`
	ProductID     uint   `gorm:"not null;uniqueIndex"`
	SerialCode    string `gorm:"size:32;not null;index"`
	QrImageURL    string `gorm:"size:1024"`
	ScanCount     int64  `gorm:"not null;default:0"`
	LastScannedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	ScanLogs []ScanLog `gorm:"constraint:OnDelete:CASCADE"`
}
