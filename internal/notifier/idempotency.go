package notifier

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/remita/exchange-gateway/pkg/logger"
	"github.com/remita/exchange-gateway/pkg/redis"
)

var (
	ErrAlreadyProcessed   = errors.New("event already processed")
	ErrLockAcquireFailed  = errors.New("failed to acquire processing lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL            time.Duration
	ProcessedTTL       time.Duration
	MaxRetries         int
	RetryKeyPrefix     string
	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "notifier:retry:",
		LockKeyPrefix:      "notifier:lock:",
		ProcessedKeyPrefix: "notifier:processed:",
	}
}

// IdempotencyService keeps duplicate event deliveries from producing
// duplicate emails. Events carry a stable EventID; a processed marker lives
// for ProcessedTTL, a short SetNX lock covers the in-flight window.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type ProcessingContext struct {
	EventID      string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
}

func (s *IdempotencyService) AcquireProcessingLock(ctx context.Context, eventID string) (*ProcessingContext, error) {
	exists, err := s.redis.Exist(s.config.ProcessedKeyPrefix + eventID)
	if err != nil {
		// A failed check should not block delivery; a duplicate email is the
		// lesser evil.
		logger.Warn("Failed to check processed marker", "event_id", eventID, "error", err)
	} else if exists > 0 {
		return nil, ErrAlreadyProcessed
	}

	retryCount, err := s.GetRetryCount(ctx, eventID)
	if err != nil {
		logger.Warn("Failed to read retry counter", "event_id", eventID, "error", err)
	}

	if retryCount >= s.config.MaxRetries {
		return nil, fmt.Errorf("%w: event_id=%s, retries=%d", ErrMaxRetriesExceeded, eventID, retryCount)
	}

	lockValue := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.redis.SetNX(s.config.LockKeyPrefix+eventID, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return nil, ErrLockAcquireFailed
	}

	return &ProcessingContext{
		EventID:      eventID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
	}, nil
}

// MarkSuccess sets the long-term processed marker and drops the lock and
// retry counter.
func (s *IdempotencyService) MarkSuccess(ctx context.Context, pc *ProcessingContext) error {
	if err := s.redis.Set(s.config.ProcessedKeyPrefix+pc.EventID, []byte("1"), s.config.ProcessedTTL); err != nil {
		return fmt.Errorf("failed to mark as processed: %w", err)
	}

	if err := s.redis.Del(s.config.LockKeyPrefix + pc.EventID); err != nil {
		logger.Warn("Failed to cleanup lock", "event_id", pc.EventID, "error", err)
	}
	if err := s.redis.Del(s.config.RetryKeyPrefix + pc.EventID); err != nil {
		logger.Warn("Failed to cleanup retry counter", "event_id", pc.EventID, "error", err)
	}
	pc.lockAcquired = false
	return nil
}

// MarkFailure bumps the retry counter and releases the lock so a later
// delivery can try again.
func (s *IdempotencyService) MarkFailure(ctx context.Context, pc *ProcessingContext, reason error) error {
	newCount := pc.RetryCount + 1
	retryValue := []byte(strconv.Itoa(newCount))

	if err := s.redis.Set(s.config.RetryKeyPrefix+pc.EventID, retryValue, s.config.ProcessedTTL); err != nil {
		logger.Error("Failed to increment retry counter", "event_id", pc.EventID, "error", err)
	}

	if err := s.redis.Del(s.config.LockKeyPrefix + pc.EventID); err != nil {
		logger.Warn("Failed to remove lock", "event_id", pc.EventID, "error", err)
	}
	pc.lockAcquired = false

	logger.Warn("Event processing failed, will retry",
		"event_id", pc.EventID,
		"retry_count", newCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)
	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, pc *ProcessingContext) error {
	if pc == nil || !pc.lockAcquired {
		return nil
	}

	if err := s.redis.Del(s.config.LockKeyPrefix + pc.EventID); err != nil {
		logger.Warn("Failed to release lock", "event_id", pc.EventID, "error", err)
		return err
	}
	pc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, eventID string) (int, error) {
	raw, err := s.redis.Get(s.config.RetryKeyPrefix + eventID)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}
	count, _ := strconv.Atoi(string(raw))
	return count, nil
}

func (s *IdempotencyService) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	exists, err := s.redis.Exist(s.config.ProcessedKeyPrefix + eventID)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
