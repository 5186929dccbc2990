package models

import "time"

type ScanLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QrRecordID uint      `gorm:"not null;index" json:"qr_record_id"`
	ScannedAt  time.Time `gorm:"not null;index" json:"scanned_at"`
	IP         string    `gorm:"size:64" json:"ip"`
	UserAgent  string    `gorm:"size:512" json:"user_agent"`
}

type GramScanLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ItemID    uint      `gorm:"not null;index" json:"item_id"`
	ScannedAt time.Time `gorm:"not null;index" json:"scanned_at"`
	IP        string    `gorm:"size:64" json:"ip"`
	UserAgent string    `gorm:"size:512" json:"user_agent"`
}
