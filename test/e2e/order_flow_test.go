package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gateway "github.com/remita/exchange-gateway/internal/gateways"
	"github.com/remita/exchange-gateway/internal/model"
	"github.com/remita/exchange-gateway/internal/queue"
	"github.com/remita/exchange-gateway/internal/repository"
	"github.com/remita/exchange-gateway/internal/scheduler"
	"github.com/remita/exchange-gateway/internal/services"
	"github.com/remita/exchange-gateway/pkg/pg"
	"github.com/remita/exchange-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testDB = pg.DB

// stubRates answers with a fixed table, like the provider stub binary does.
type stubRates struct {
	rates map[string]float64
}

func (s *stubRates) GetRate(ctx context.Context, currencyCode string) (*gateway.Rate, error) {
	rate, ok := s.rates[currencyCode]
	if !ok {
		return nil, model.ErrCurrencyNotFound
	}
	return &gateway.Rate{CurrencyCode: currencyCode, Rate: rate}, nil
}

type stubAttachments struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubAttachments() *stubAttachments {
	return &stubAttachments{objects: make(map[string][]byte)}
}

func (s *stubAttachments) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *stubAttachments) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *stubAttachments) SignedURL(key string, ttl time.Duration) string {
	return "https://storage.test/objects/" + key
}

func (s *stubAttachments) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type stubIdentity struct {
	mu       sync.Mutex
	accounts map[string]string
	nextID   int64
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{accounts: make(map[string]string), nextID: 1}
}

func (s *stubIdentity) Register(ctx context.Context, name, email, password string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		return nil, model.ErrEmailTaken
	}
	s.accounts[email] = password
	id := s.nextID
	s.nextID++
	return &model.Session{Identity: model.Identity{ID: id, Name: name, Email: email}}, nil
}

func (s *stubIdentity) Authenticate(ctx context.Context, email, password string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[email]
	if !ok || stored != password {
		return nil, model.ErrInvalidCredentials
	}
	return &model.Session{Identity: model.Identity{ID: 1, Email: email}}, nil
}

func (s *stubIdentity) SetPhone(ctx context.Context, userID int64, phone string) error {
	return nil
}

type TestEnvironment struct {
	DB              *pg.DB
	Redis           *miniredis.Miniredis
	RedisAdapter    redis.RedisAdapter
	Queue           *queue.Queue
	OrderRepo       *repository.OrderRepository
	BillingRepo     *repository.BillingRepository
	MonthRepo       *repository.MonthHistoryRepository
	YearRepo        *repository.YearHistoryRepository
	ReportRepo      *repository.ReportRepository
	Rates           *stubRates
	Attachments     *stubAttachments
	Identity        *stubIdentity
	OrderService    *services.OrderService
	CheckoutService *services.CheckoutService
	ReportService   *services.ReportService
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.OrderEntity{},
		&repository.OrderBillingEntity{},
		&repository.MonthHistoryEntity{},
		&repository.YearHistoryEntity{},
	)
	require.NoError(t, err)

	pgDB := &testDB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	redisAdapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	q, err := queue.New(redisAdapter, queue.Config{
		Name:              "test:orders:events",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      100 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	})
	require.NoError(t, err)

	orderRepo := repository.NewOrderRepository(pgDB)
	billingRepo := repository.NewBillingRepository(pgDB)
	monthRepo := repository.NewMonthHistoryRepository(pgDB)
	yearRepo := repository.NewYearHistoryRepository(pgDB)
	reportRepo := repository.NewReportRepository(pgDB)

	rates := &stubRates{rates: map[string]float64{"GHS": 0.52, "NGN": 0.0095}}
	attachments := newStubAttachments()
	identity := newStubIdentity()

	orderService := services.NewOrderService(orderRepo, monthRepo, yearRepo, billingRepo, rates, attachments, q)
	checkoutService := services.NewCheckoutService(orderRepo, billingRepo, monthRepo, yearRepo, identity, q)
	reportService := services.NewReportService(reportRepo, monthRepo, yearRepo)

	return &TestEnvironment{
		DB:              pgDB,
		Redis:           mr,
		RedisAdapter:    redisAdapter,
		Queue:           q,
		OrderRepo:       orderRepo,
		BillingRepo:     billingRepo,
		MonthRepo:       monthRepo,
		YearRepo:        yearRepo,
		ReportRepo:      reportRepo,
		Rates:           rates,
		Attachments:     attachments,
		Identity:        identity,
		OrderService:    orderService,
		CheckoutService: checkoutService,
		ReportService:   reportService,
	}
}

func (env *TestEnvironment) Cleanup() {
	if env.Queue != nil {
		_ = env.Queue.Stop(5 * time.Second)
	}
	time.Sleep(100 * time.Millisecond)
	if env.Redis != nil {
		env.Redis.Close()
	}
}

func validCreateRequest() model.OrderCreateRequest {
	return model.OrderCreateRequest{
		AccountType:    "alipay",
		Product:        "remittance",
		Amount:         900,
		CurrencyCode:   "GHS",
		Recipient:      "momo-account",
		Attachment:     []byte("png-bytes"),
		AttachmentName: "qr.png",
	}
}

func TestE2E_OrderCreationFreezesRate(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	order, err := env.OrderService.Create(ctx, nil, validCreateRequest())
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Nil(t, order.UserID)
	assert.Equal(t, model.OrderStatusHeld, order.Status)
	assert.Equal(t, 0.52, order.Rate)
	assert.Equal(t, 468.0, order.RmbEquivalence)
	assert.NotEmpty(t, order.QRCodeURL)
	assert.Equal(t, 1, env.Attachments.count())

	// rate changes after creation never touch the stored order
	env.Rates.rates["GHS"] = 0.60
	got, err := env.OrderService.Get(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.52, got.Rate)
}

func TestE2E_UnknownCurrencyRejected(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	req := validCreateRequest()
	req.CurrencyCode = "XXX"

	order, err := env.OrderService.Create(context.Background(), nil, req)
	assert.ErrorIs(t, err, model.ErrCurrencyNotFound)
	assert.Nil(t, order)
	assert.Zero(t, env.Attachments.count())
}

func TestE2E_GuestOrderSkipsHistory(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	_, err := env.OrderService.Create(ctx, nil, validCreateRequest())
	require.NoError(t, err)

	years, err := env.MonthRepo.Years(ctx)
	require.NoError(t, err)
	assert.Empty(t, years)
}

func TestE2E_OwnedOrderRecordsHistory(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	userID := int64(7)

	_, err := env.OrderService.Create(ctx, &userID, validCreateRequest())
	require.NoError(t, err)

	now := time.Now()
	days, err := env.MonthRepo.DaysForMonth(ctx, int(now.Month()), now.Year(), &userID)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, now.Day(), days[0].Day)
	assert.Equal(t, 1, days[0].Orders)
	assert.Equal(t, 900.0, days[0].Expense)

	months, err := env.YearRepo.MonthsForYear(ctx, now.Year(), &userID)
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.Equal(t, int(now.Month()), months[0].Month)
}

func TestE2E_GuestCheckoutMigratesOwnership(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	order, err := env.OrderService.Create(ctx, nil, validCreateRequest())
	require.NoError(t, err)

	info := model.BillingInfo{Name: "Ama Mensah", Email: "ama@example.com", MomoName: "Ama M"}
	claimed, session, err := env.CheckoutService.CheckoutAsGuest(ctx, order.ID, info, "secret")
	require.NoError(t, err)
	require.NotNil(t, session)
	require.NotNil(t, claimed.UserID)
	assert.Equal(t, session.Identity.ID, *claimed.UserID)

	billing, err := env.BillingRepo.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ama@example.com", billing.Email)

	// migration moves the order into the history counters
	now := time.Now()
	days, err := env.MonthRepo.DaysForMonth(ctx, int(now.Month()), now.Year(), claimed.UserID)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 1, days[0].Orders)

	stats, err := env.Queue.GetStats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalMessages, int64(1))
}

func TestE2E_DuplicateCheckoutRejected(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	userID := int64(7)

	order, err := env.OrderService.Create(ctx, &userID, validCreateRequest())
	require.NoError(t, err)

	info := model.BillingInfo{Name: "Ama Mensah", Email: "ama@example.com"}
	_, err = env.CheckoutService.Checkout(ctx, userID, order.ID, info)
	require.NoError(t, err)

	_, err = env.CheckoutService.Checkout(ctx, userID, order.ID, info)
	assert.ErrorIs(t, err, model.ErrBillingExists)
}

func TestE2E_CheckoutEventConsumption(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	userID := int64(7)

	order, err := env.OrderService.Create(ctx, &userID, validCreateRequest())
	require.NoError(t, err)

	info := model.BillingInfo{Name: "Ama Mensah", Email: "ama@example.com"}
	_, err = env.CheckoutService.Checkout(ctx, userID, order.ID, info)
	require.NoError(t, err)

	received := make(chan model.OrderEvent, 1)
	handler := func(ctx context.Context, qMsg *queue.Message) error {
		var event model.OrderEvent
		if err := json.Unmarshal(qMsg.Data, &event); err != nil {
			return err
		}
		received <- event
		return nil
	}

	err = env.Queue.Consume(handler)
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.NotEmpty(t, event.EventID)
		assert.Equal(t, "ama@example.com", event.Email)
		require.NotNil(t, event.Order)
		assert.Equal(t, order.ID, event.Order.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("checkout event not consumed within timeout")
	}
}

func TestE2E_LoginAndCheckout(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	_, err := env.Identity.Register(ctx, "Ama", "ama@example.com", "secret")
	require.NoError(t, err)

	order, err := env.OrderService.Create(ctx, nil, validCreateRequest())
	require.NoError(t, err)

	info := model.BillingInfo{Name: "Ama Mensah", Email: "ama@example.com"}
	creds := model.Credentials{Email: "ama@example.com", Password: "secret"}

	claimed, session, err := env.CheckoutService.LoginAndCheckout(ctx, order.ID, creds, info)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.NotNil(t, claimed.UserID)

	_, _, err = env.CheckoutService.LoginAndCheckout(ctx, order.ID, model.Credentials{Email: "ama@example.com", Password: "wrong"}, info)
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestE2E_RevenueAndStatistics(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	userID := int64(7)

	first, err := env.OrderService.Create(ctx, &userID, validCreateRequest())
	require.NoError(t, err)
	_, err = env.OrderService.Create(ctx, &userID, validCreateRequest())
	require.NoError(t, err)

	_, err = env.OrderService.UpdateStatus(ctx, first.ID, model.OrderStatusCompleted)
	require.NoError(t, err)

	report, err := env.ReportService.Revenue(ctx, model.StatsFilter{})
	require.NoError(t, err)
	require.Len(t, report.Completed, 1)
	assert.Equal(t, 900.0, report.Completed[0].Total)
	require.Len(t, report.Held, 1)
	assert.Equal(t, 900.0, report.Held[0].Total)

	stats, err := env.ReportService.Statistics(ctx, model.StatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.SuccessfulOrders)
	assert.Equal(t, int64(1), stats.HeldOrders)
	assert.Equal(t, "900.00", stats.SuccessfulExpense)
	assert.Equal(t, "900.00", stats.HeldExpense)
}

func TestE2E_StatisticsCountPendingAsHeld(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()
	userID := int64(7)

	_, err := env.OrderService.Create(ctx, &userID, validCreateRequest())
	require.NoError(t, err)
	pending, err := env.OrderService.Create(ctx, &userID, validCreateRequest())
	require.NoError(t, err)
	completed, err := env.OrderService.Create(ctx, &userID, validCreateRequest())
	require.NoError(t, err)

	_, err = env.OrderService.UpdateStatus(ctx, pending.ID, model.OrderStatusPending)
	require.NoError(t, err)
	_, err = env.OrderService.UpdateStatus(ctx, completed.ID, model.OrderStatusCompleted)
	require.NoError(t, err)

	stats, err := env.ReportService.Statistics(ctx, model.StatsFilter{})
	require.NoError(t, err)

	// held counts payment-pending and in-flight orders together
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.HeldOrders)
	assert.Equal(t, int64(1), stats.SuccessfulOrders)
	assert.Equal(t, int64(0), stats.CancelledOrders)

	// held expense keeps its wider population: everything not completed
	assert.Equal(t, "1800.00", stats.HeldExpense)
	assert.Equal(t, "900.00", stats.SuccessfulExpense)
	assert.Equal(t, "2700.00", stats.ProjectedExpense)
}

func TestE2E_ExpirySchedulerPurges(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	order, err := env.OrderService.Create(ctx, nil, validCreateRequest())
	require.NoError(t, err)
	require.Equal(t, 1, env.Attachments.count())

	sched := scheduler.NewExpiryScheduler(env.OrderRepo, env.Attachments, env.RedisAdapter, 0)
	require.NoError(t, sched.Run(ctx))

	assert.Zero(t, env.Attachments.count())

	got, err := env.OrderService.Get(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	assert.Empty(t, got.QRCodeURL)

	// same-day rerun is a no-op thanks to the daily lock
	_, err = env.OrderService.Create(ctx, nil, validCreateRequest())
	require.NoError(t, err)
	require.NoError(t, sched.Run(ctx))
	assert.Equal(t, 1, env.Attachments.count())
}
