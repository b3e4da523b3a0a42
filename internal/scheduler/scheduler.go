package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/pkg/logger"
	"github.com/remita/exchange-gateway/pkg/prom"
	"github.com/remita/exchange-gateway/pkg/redis"
)

const runLockTTL = 23 * time.Hour

type OrderStore interface {
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Order, error)
	ClearAllQRCodeKeys(ctx context.Context) (int64, error)
	CancelHeld(ctx context.Context) (int64, error)
}

type AttachmentRemover interface {
	Delete(ctx context.Context, key string) error
}

// ExpiryScheduler runs the daily purge: uploaded QR codes are deleted, their
// keys blanked, and orders still HELD are cancelled. Order rows themselves
// are never deleted.
type ExpiryScheduler struct {
	orders      OrderStore
	attachments AttachmentRemover
	adapter     redis.RedisAdapter
	runHour     int
	now         func() time.Time
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewExpiryScheduler(orders OrderStore, attachments AttachmentRemover, adapter redis.RedisAdapter, runHour int) *ExpiryScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpiryScheduler{
		orders:      orders,
		attachments: attachments,
		adapter:     adapter,
		runHour:     runHour,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the daily loop. The first run waits until the next
// configured hour.
func (s *ExpiryScheduler) Start() {
	s.wg.Add(1)
	go s.loop()
	logger.Info("Expiry scheduler started", "run_hour", s.runHour)
}

func (s *ExpiryScheduler) loop() {
	defer s.wg.Done()

	for {
		wait := s.untilNextRun()
		timer := time.NewTimer(wait)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := s.Run(s.ctx); err != nil {
				logger.Error("Expiry run failed", "error", err)
			}
		}
	}
}

func (s *ExpiryScheduler) untilNextRun() time.Duration {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.runHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// Run executes a single purge pass. A redis lock keyed by the run date keeps
// concurrent instances from running the same day twice; the pass itself is
// harmless to repeat.
func (s *ExpiryScheduler) Run(ctx context.Context) error {
	now := s.now()

	lockKey := "scheduler:expiry:" + now.Format("2006-01-02")
	acquired, err := s.adapter.SetNX(lockKey, []byte("1"), runLockTTL)
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		logger.Info("Expiry run already taken by another instance", "date", now.Format("2006-01-02"))
		return nil
	}

	start := now
	deleted := s.purgeAttachments(ctx, now)

	cleared, err := s.orders.ClearAllQRCodeKeys(ctx)
	if err != nil {
		return fmt.Errorf("clear qr code keys: %w", err)
	}

	cancelled, err := s.orders.CancelHeld(ctx)
	if err != nil {
		return fmt.Errorf("cancel held orders: %w", err)
	}

	prom.AddHistogram(prom.SystemScheduler, prom.MetricSchedulerRunDuration, time.Since(start).Seconds())
	prom.AddCounter(prom.SystemScheduler, prom.MetricSchedulerCancelledTotal, float64(cancelled))

	logger.Info("Expiry run finished",
		"attachments_deleted", deleted,
		"keys_cleared", cleared,
		"orders_cancelled", cancelled,
		"duration", time.Since(start))
	return nil
}

// purgeAttachments deletes the stored QR images for orders created in the
// trailing day. Failures are logged and skipped; the key sweep below blanks
// the references either way.
func (s *ExpiryScheduler) purgeAttachments(ctx context.Context, now time.Time) int {
	orders, err := s.orders.ListCreatedBetween(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		logger.Error("Failed to list orders for attachment purge", "error", err)
		return 0
	}

	deleted := 0
	for _, o := range orders {
		if o.QRCodeKey == "" {
			continue
		}
		if err := s.attachments.Delete(ctx, o.QRCodeKey); err != nil {
			logger.Warn("Failed to delete attachment", "order_id", o.ID, "key", o.QRCodeKey, "error", err)
			continue
		}
		deleted++
	}
	return deleted
}

func (s *ExpiryScheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	logger.Info("Expiry scheduler stopped")
}
