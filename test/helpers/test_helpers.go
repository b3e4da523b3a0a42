package helpers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/remita/exchange-gateway/internal/repository"
	"github.com/remita/exchange-gateway/pkg/pg"
	"github.com/remita/exchange-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.OrderEntity{},
		&repository.OrderBillingEntity{},
		&repository.MonthHistoryEntity{},
		&repository.YearHistoryEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	adapter, err := redis.NewRedisAdapter("test-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestOrder(t *testing.T, db *pg.DB, userID *int64, amount float64, status string) *repository.OrderEntity {
	ctx := context.Background()
	order := &repository.OrderEntity{
		UserID:         userID,
		AccountType:    "alipay",
		Product:        "remittance",
		CurrencyCode:   "GHS",
		Rate:           0.52,
		Amount:         amount,
		RmbEquivalence: amount * 0.52,
		Recipient:      "momo-account",
		QRCodeKey:      "qr-key.png",
		Status:         status,
		CreatedAt:      time.Now(),
	}
	err := db.Write(ctx).Create(order).Error
	require.NoError(t, err)
	return order
}

func CreateTestBilling(t *testing.T, db *pg.DB, orderID int64, email string) *repository.OrderBillingEntity {
	ctx := context.Background()
	billing := &repository.OrderBillingEntity{
		OrderID: orderID,
		Name:    "Ama Mensah",
		Email:   email,
	}
	err := db.Write(ctx).Create(billing).Error
	require.NoError(t, err)
	return billing
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
