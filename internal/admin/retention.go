// Package admin holds operator maintenance: retention cleanup of the deletion
// audit trail and the spreadsheet export.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/config"
	"luxverify-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type RetentionRepository interface {
	PurgeDeleteHistory(ctx context.Context, cutoff time.Time) (store.PurgeResult, error)
}

type CleanupResult struct {
	store.PurgeResult
	Days   int       `json:"days"`
	Cutoff time.Time `json:"cutoff"`
}

type RetentionService struct {
	repo        RetentionRepository
	defaultDays int
	now         func() time.Time
}

func NewRetentionService(repo RetentionRepository, defaultDays int) *RetentionService {
	return &RetentionService{repo: repo, defaultDays: defaultDays, now: time.Now}
}

// WithClock returns a copy that computes cutoffs from now.
func (s *RetentionService) WithClock(now func() time.Time) *RetentionService {
	clone := *s
	clone.now = now
	return &clone
}

func (s *RetentionService) DefaultDays() int {
	return s.defaultDays
}

// ParseDays accepts a JSON number or a numeric string. A missing value means
// def.
func ParseDays(raw any, def int) (int, error) {
	invalid := invalidWindow()

	var days int
	switch v := raw.(type) {
	case nil:
		days = def
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			days = def
			break
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return 0, invalid
		}
		days = n
	case float64, float32, int, int64, int32, uint, uint64, uint32:
		f, err := cast.ToFloat64E(v)
		if err != nil || f != float64(int64(f)) {
			return 0, invalid
		}
		days = cast.ToInt(v)
	default:
		return 0, invalid
	}
	if days <= 0 || days > config.MaxRetentionDays {
		return 0, invalid
	}
	return days, nil
}

func invalidWindow() error {
	return apperr.Validation("invalid retention window",
		map[string]string{"days": fmt.Sprintf("must be an integer between 1 and %d", config.MaxRetentionDays)})
}

// Cleanup deletes DeleteHistory and DeleteBatch rows whose deleted_at is
// strictly before now minus days. Both tables are purged in one transaction.
func (s *RetentionService) Cleanup(ctx context.Context, days int) (*CleanupResult, error) {
	if days <= 0 || days > config.MaxRetentionDays {
		return nil, invalidWindow()
	}
	cutoff := s.now().AddDate(0, 0, -days)

	res, err := s.repo.PurgeDeleteHistory(ctx, cutoff)
	if err != nil {
		return nil, apperr.Dependency(err, "could not purge delete history")
	}

	zap.L().Info("retention cleanup",
		zap.Int("days", days),
		zap.Time("cutoff", cutoff),
		zap.Int64("delete_histories", res.DeleteHistories),
		zap.Int64("delete_batches", res.DeleteBatches))
	return &CleanupResult{PurgeResult: res, Days: days, Cutoff: cutoff}, nil
}

// Schedule registers a cleanup with the default window on sched. An empty
// spec leaves the job disabled.
func (s *RetentionService) Schedule(sched *cron.Cron, spec string) (cron.EntryID, error) {
	if spec == "" {
		return 0, nil
	}
	return sched.AddFunc(spec, func() {
		defer func() {
			if err := recover(); err != nil {
				zap.S().Error(err)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.Cleanup(ctx, s.defaultDays); err != nil {
			zap.L().Error("scheduled retention cleanup failed", zap.Error(err))
		}
	})
}

type CleanupRequest struct {
	Days any `json:"days"`
}

// POST /api/admin/retention/cleanup {"days": 30}
func RetentionCleanupHandler(svc *RetentionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CleanupRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return apperr.Validation("invalid request body", nil)
			}
		}
		if body.Days == nil && c.Query("days") != "" {
			body.Days = c.Query("days")
		}

		days, err := ParseDays(body.Days, svc.DefaultDays())
		if err != nil {
			return err
		}
		res, err := svc.Cleanup(c.UserContext(), days)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
