package models

import "time"

// Product is a single-unit item carrying its own serial code.
type Product struct {
	ID         uint     `gorm:"primaryKey"`
	Name       string   `gorm:"size:200;not null"`
	Weight     float64  `gorm:"not null"` // grams
	Price      *float64 // optional
	Stock      *int     // optional
	SerialCode string   `gorm:"size:32;not null;uniqueIndex"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	QrRecord *QrRecord `gorm:"constraint:OnDelete:CASCADE"`
}
