package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	orders       []*model.Order
	listErr      error
	cleared      int64
	cancelled    int64
	clearCalls   int
	cancelCalls  int
	listedRanges [][2]time.Time
}

func (f *fakeOrderStore) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Order, error) {
	f.listedRanges = append(f.listedRanges, [2]time.Time{from, to})
	return f.orders, f.listErr
}

func (f *fakeOrderStore) ClearAllQRCodeKeys(ctx context.Context) (int64, error) {
	f.clearCalls++
	return f.cleared, nil
}

func (f *fakeOrderStore) CancelHeld(ctx context.Context) (int64, error) {
	f.cancelCalls++
	return f.cancelled, nil
}

type fakeAttachmentRemover struct {
	deleted []string
	failOn  map[string]error
}

func (f *fakeAttachmentRemover) Delete(ctx context.Context, key string) error {
	if err, ok := f.failOn[key]; ok {
		return err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func setupSchedulerRedis(t *testing.T) redis.RedisAdapter {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return adapter
}

func TestExpiryScheduler_Run(t *testing.T) {
	store := &fakeOrderStore{
		orders: []*model.Order{
			{ID: 1, QRCodeKey: "a.png", Status: model.OrderStatusHeld},
			{ID: 2, QRCodeKey: "b.png", Status: model.OrderStatusCompleted},
			{ID: 3, QRCodeKey: "", Status: model.OrderStatusHeld},
		},
		cleared:   2,
		cancelled: 1,
	}
	remover := &fakeAttachmentRemover{}
	s := NewExpiryScheduler(store, remover, setupSchedulerRedis(t), 0)

	require.NoError(t, s.Run(context.Background()))

	assert.ElementsMatch(t, []string{"a.png", "b.png"}, remover.deleted)
	assert.Equal(t, 1, store.clearCalls)
	assert.Equal(t, 1, store.cancelCalls)

	require.Len(t, store.listedRanges, 1)
	window := store.listedRanges[0]
	assert.WithinDuration(t, window[1].Add(-24*time.Hour), window[0], time.Second)
}

func TestExpiryScheduler_RunLockedOncePerDay(t *testing.T) {
	store := &fakeOrderStore{}
	remover := &fakeAttachmentRemover{}
	s := NewExpiryScheduler(store, remover, setupSchedulerRedis(t), 0)

	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, s.Run(context.Background()))

	// The second run bails on the lock without touching the store.
	assert.Equal(t, 1, store.clearCalls)
	assert.Equal(t, 1, store.cancelCalls)
}

func TestExpiryScheduler_AttachmentFailureDoesNotAbort(t *testing.T) {
	store := &fakeOrderStore{
		orders: []*model.Order{
			{ID: 1, QRCodeKey: "bad.png"},
			{ID: 2, QRCodeKey: "good.png"},
		},
	}
	remover := &fakeAttachmentRemover{
		failOn: map[string]error{"bad.png": assert.AnError},
	}
	s := NewExpiryScheduler(store, remover, setupSchedulerRedis(t), 0)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []string{"good.png"}, remover.deleted)
	assert.Equal(t, 1, store.clearCalls)
	assert.Equal(t, 1, store.cancelCalls)
}

func TestExpiryScheduler_UntilNextRun(t *testing.T) {
	s := NewExpiryScheduler(&fakeOrderStore{}, &fakeAttachmentRemover{}, setupSchedulerRedis(t), 3)

	s.now = func() time.Time {
		return time.Date(2025, 6, 10, 1, 0, 0, 0, time.UTC)
	}
	assert.Equal(t, 2*time.Hour, s.untilNextRun())

	// Past today's run hour, the next run is tomorrow.
	s.now = func() time.Time {
		return time.Date(2025, 6, 10, 5, 0, 0, 0, time.UTC)
	}
	assert.Equal(t, 22*time.Hour, s.untilNextRun())
}

func TestExpiryScheduler_StartStop(t *testing.T) {
	s := NewExpiryScheduler(&fakeOrderStore{}, &fakeAttachmentRemover{}, setupSchedulerRedis(t), 0)
	s.Start()
	s.Stop()
}
