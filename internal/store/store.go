// Package store is the relational persistence layer. Every multi-row write
// runs inside one transaction.
package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock returns a copy of the store that stamps rows using now.
func (s *Store) WithClock(now func() time.Time) *Store {
	clone := *s
	clone.now = now
	return &clone
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// ScanInfo describes the client behind a verification attempt.
type ScanInfo struct {
	IP        string
	UserAgent string
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
