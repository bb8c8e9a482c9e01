package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"tradepost/internal/service/fulfillment/domain"
)

// --- 端口替身 ---

type fakeOrderRepo struct {
	orders  map[string]*domain.Order
	findErr error
	saveErr error
	saved   []*domain.Order
}

// FindByID 返回副本：事务内的修改只有 Save 之后才对仓储可见，
// 用来模拟失败回滚的效果。
func (r *fakeOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *domain.Order) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	cp := *order
	r.orders[order.ID] = &cp
	r.saved = append(r.saved, &cp)
	return nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type fakeTx struct {
	calls int
}

func (t *fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakePayments struct {
	payment *domain.Payment
	err     error
	calls   int
}

func (p *fakePayments) Capture(_ context.Context, order *domain.Order, _ *domain.User, _ domain.PaymentRequest) (*domain.Payment, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	cp := *p.payment
	cp.OrderID = order.ID
	return &cp, nil
}

type fakeShipments struct {
	err   error
	calls int
}

func (s *fakeShipments) Create(_ context.Context, order *domain.Order, _, _, _, _ string) (*domain.Shipment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Shipment{ID: "ship-1", OrderID: order.ID, TrackingNo: "TRK-1"}, nil
}

type fakeWarehouse struct {
	err   error
	calls int
}

func (w *fakeWarehouse) CreateStorage(_ context.Context, order *domain.Order, user *domain.User) (*domain.WarehouseStorage, error) {
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	return &domain.WarehouseStorage{ID: "sto-1", OrderID: order.ID, UserID: user.ID}, nil
}

type fakeProducer struct {
	processing []*domain.ProcessingEvent
	retries    []*domain.ProcessingEvent
	publishErr error
	retryErr   error
}

func (p *fakeProducer) PublishProcessing(_ context.Context, event *domain.ProcessingEvent) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.processing = append(p.processing, event)
	return nil
}

func (p *fakeProducer) PublishRetry(_ context.Context, event *domain.ProcessingEvent) error {
	if p.retryErr != nil {
		return p.retryErr
	}
	p.retries = append(p.retries, event)
	return nil
}

type fakeNotifier struct {
	dispatched []domain.Notification
}

func (n *fakeNotifier) Dispatch(_ context.Context, notification domain.Notification) {
	n.dispatched = append(n.dispatched, notification)
}

// --- 组装 ---

type fixture struct {
	service   *FulfillmentService
	orders    *fakeOrderRepo
	users     *fakeUserRepo
	tx        *fakeTx
	payments  *fakePayments
	shipments *fakeShipments
	warehouse *fakeWarehouse
	producer  *fakeProducer
	notifier  *fakeNotifier
	waits     []time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders: &fakeOrderRepo{orders: map[string]*domain.Order{
			"order-1": {ID: "order-1", UserID: "user-1", Status: domain.StatusPendingPayment},
		}},
		users: &fakeUserRepo{users: map[string]*domain.User{
			"user-1": {ID: "user-1", Nickname: "kim"},
			"user-2": {ID: "user-2", Nickname: "lee"},
		}},
		tx:        &fakeTx{},
		payments:  &fakePayments{payment: &domain.Payment{ID: "pay-1", Status: "SUCCESS"}},
		shipments: &fakeShipments{},
		warehouse: &fakeWarehouse{},
		producer:  &fakeProducer{},
		notifier:  &fakeNotifier{},
	}
	f.service = NewFulfillmentService(
		f.orders, f.users, f.tx,
		f.payments, f.shipments, f.warehouse,
		f.producer, f.notifier,
		3, noop.NewTracerProvider().Tracer("test"),
	)
	// 测试不真正睡眠，只记录退避时长
	f.service.wait = func(_ context.Context, d time.Duration) error {
		f.waits = append(f.waits, d)
		return nil
	}
	return f
}

func event(retryCount int, wantsStorage bool) *domain.ProcessingEvent {
	e := domain.NewProcessingEvent("order-1", "user-1", domain.FulfillmentRequest{
		Payment: domain.PaymentRequest{
			Method: domain.PaymentMethod{Kind: domain.MethodCard, Card: &domain.CardDetails{Token: "tok-1"}},
			Amount: 12000,
		},
		ReceiverName:  "kim",
		ReceiverPhone: "010-0000-0000",
		PostalCode:    "04524",
		Address:       "seoul",
		WantsStorage:  wantsStorage,
	})
	e.RetryCount = retryCount
	return e
}

// --- RequestFulfillment ---

func TestRequestFulfillment_Enqueues(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.RequestFulfillment(context.Background(), &FulfillOrderRequest{
		OrderID: "order-1", UserID: "user-1",
	})

	require.NoError(t, err)
	require.Len(t, f.producer.processing, 1)
	assert.Equal(t, "order-1", f.producer.processing[0].OrderID)
	assert.Equal(t, 0, f.producer.processing[0].RetryCount)
	assert.Equal(t, f.producer.processing[0].EventID, resp.EventID)
}

func TestRequestFulfillment_PublishError(t *testing.T) {
	f := newFixture(t)
	f.producer.publishErr = errors.New("broker unavailable")

	_, err := f.service.RequestFulfillment(context.Background(), &FulfillOrderRequest{OrderID: "order-1", UserID: "user-1"})

	require.Error(t, err)
}

// --- HandleEvent ---

func TestHandleEvent_DirectShipSuccess(t *testing.T) {
	f := newFixture(t)

	disposition := f.service.HandleEvent(context.Background(), event(0, false))

	assert.Equal(t, DispositionProcessed, disposition)
	assert.Equal(t, 1, f.tx.calls)

	saved := f.orders.orders["order-1"]
	assert.Equal(t, domain.StatusPreparing, saved.Status)
	assert.Equal(t, "pay-1", saved.PaymentID)
	assert.Equal(t, "ship-1", saved.ShipmentID)
	assert.Empty(t, saved.StorageID)
	assert.Equal(t, 0, f.warehouse.calls)

	require.Len(t, f.notifier.dispatched, 1)
	n := f.notifier.dispatched[0]
	assert.Equal(t, domain.NotificationSuccess, n.Outcome)
	assert.Equal(t, domain.StatusPreparing, n.Status)
	assert.Equal(t, "user-1", n.UserID)
}

func TestHandleEvent_WarehouseSuccess(t *testing.T) {
	f := newFixture(t)

	disposition := f.service.HandleEvent(context.Background(), event(0, true))

	assert.Equal(t, DispositionProcessed, disposition)
	saved := f.orders.orders["order-1"]
	assert.Equal(t, domain.StatusCompleted, saved.Status)
	assert.Equal(t, "sto-1", saved.StorageID)
	assert.Equal(t, 1, f.warehouse.calls)

	require.Len(t, f.notifier.dispatched, 1)
	assert.Equal(t, domain.StatusCompleted, f.notifier.dispatched[0].Status)
}

func TestHandleEvent_DuplicateDeliveryIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.orders.orders["order-1"].Status = domain.StatusCompleted

	disposition := f.service.HandleEvent(context.Background(), event(0, false))

	// 重复投递：确认消息，零副作用
	assert.Equal(t, DispositionProcessed, disposition)
	assert.Equal(t, 0, f.payments.calls)
	assert.Equal(t, 0, f.shipments.calls)
	assert.Equal(t, 0, f.tx.calls)
	assert.Empty(t, f.orders.saved)
	assert.Empty(t, f.notifier.dispatched)
	assert.Empty(t, f.producer.retries)
}

func TestHandleEvent_GatewayDeclineSchedulesRetry(t *testing.T) {
	f := newFixture(t)
	f.payments.payment = &domain.Payment{ID: "pay-1", Status: "FAILED", Reason: "insufficient funds"}

	disposition := f.service.HandleEvent(context.Background(), event(0, false))

	assert.Equal(t, DispositionRetryScheduled, disposition)
	require.Len(t, f.producer.retries, 1)
	assert.Equal(t, 0, f.producer.retries[0].RetryCount) // 计数递增由生产者适配器派生

	// 数据库效果回滚，订单停留在初始状态
	assert.Equal(t, domain.StatusPendingPayment, f.orders.orders["order-1"].Status)
	assert.Empty(t, f.orders.saved)
	// 还会自动重试，不打扰用户
	assert.Empty(t, f.notifier.dispatched)
}

func TestHandleEvent_InfraErrorSchedulesRetry(t *testing.T) {
	f := newFixture(t)
	f.shipments.err = errors.New("dial tcp: connection refused")

	disposition := f.service.HandleEvent(context.Background(), event(1, false))

	assert.Equal(t, DispositionRetryScheduled, disposition)
	require.Len(t, f.producer.retries, 1)
	assert.Empty(t, f.orders.saved)
}

func TestHandleEvent_OwnerMismatchIsTerminal(t *testing.T) {
	f := newFixture(t)
	e := event(0, false)
	e.UserID = "user-2"

	disposition := f.service.HandleEvent(context.Background(), e)

	assert.Equal(t, DispositionTerminalFailure, disposition)
	assert.Equal(t, 0, f.payments.calls)
	assert.Empty(t, f.producer.retries)

	require.Len(t, f.notifier.dispatched, 1)
	n := f.notifier.dispatched[0]
	assert.Equal(t, domain.NotificationFailed, n.Outcome)
	assert.False(t, n.Retryable)
}

func TestHandleEvent_OrderNotFoundIsTerminal(t *testing.T) {
	f := newFixture(t)
	e := event(0, false)
	e.OrderID = "order-missing"

	disposition := f.service.HandleEvent(context.Background(), e)

	assert.Equal(t, DispositionTerminalFailure, disposition)
	assert.Empty(t, f.producer.retries)
	require.Len(t, f.notifier.dispatched, 1)
}

func TestHandleEvent_RetryCeilingForcesTerminal(t *testing.T) {
	f := newFixture(t)
	f.shipments.err = errors.New("dial tcp: connection refused")

	disposition := f.service.HandleEvent(context.Background(), event(3, false))

	// retryCount 已达上限，可重试的错误也转终态
	assert.Equal(t, DispositionTerminalFailure, disposition)
	assert.Empty(t, f.producer.retries)
	require.Len(t, f.notifier.dispatched, 1)
}

func TestHandleEvent_RetryPublishFailureForcesTerminal(t *testing.T) {
	f := newFixture(t)
	f.shipments.err = errors.New("dial tcp: connection refused")
	f.producer.retryErr = errors.New("broker unavailable")

	disposition := f.service.HandleEvent(context.Background(), event(0, false))

	// 连重试事件都发不出去：宁可终态收尾，也不能静默吞掉消息
	assert.Equal(t, DispositionTerminalFailure, disposition)
	require.Len(t, f.notifier.dispatched, 1)
}

// --- HandleRetryEvent ---

func TestHandleRetryEvent_BacksOffThenSucceeds(t *testing.T) {
	f := newFixture(t)

	disposition := f.service.HandleRetryEvent(context.Background(), event(2, false))

	assert.Equal(t, DispositionProcessed, disposition)
	require.Len(t, f.waits, 1)
	assert.Equal(t, 2000*time.Millisecond, f.waits[0])
	assert.Equal(t, domain.StatusPreparing, f.orders.orders["order-1"].Status)
}

func TestHandleRetryEvent_CeilingReached(t *testing.T) {
	f := newFixture(t)

	disposition := f.service.HandleRetryEvent(context.Background(), event(3, false))

	assert.Equal(t, DispositionTerminalFailure, disposition)
	assert.Empty(t, f.waits) // 上限判断优先，不退避
	assert.Equal(t, 0, f.payments.calls)
	require.Len(t, f.notifier.dispatched, 1)
	assert.Equal(t, domain.NotificationFailed, f.notifier.dispatched[0].Outcome)
}

func TestHandleRetryEvent_SkipsBackoffWhenAlreadyHandled(t *testing.T) {
	f := newFixture(t)
	f.orders.orders["order-1"].Status = domain.StatusCompleted

	disposition := f.service.HandleRetryEvent(context.Background(), event(1, false))

	assert.Equal(t, DispositionProcessed, disposition)
	assert.Empty(t, f.waits)
	assert.Equal(t, 0, f.payments.calls)
}

func TestHandleRetryEvent_InterruptedBackoffAborts(t *testing.T) {
	f := newFixture(t)
	f.service.wait = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	disposition := f.service.HandleRetryEvent(context.Background(), event(1, false))

	// 关停中断退避：干净退出，零副作用
	assert.Equal(t, DispositionAborted, disposition)
	assert.Equal(t, 0, f.payments.calls)
	assert.Empty(t, f.orders.saved)
	assert.Empty(t, f.notifier.dispatched)
}

// --- 部分执行后的重试 ---

func TestHandleEvent_SaveFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.orders.saveErr = errors.New("deadlock found when trying to get lock")

	disposition := f.service.HandleEvent(context.Background(), event(0, false))

	assert.Equal(t, DispositionRetryScheduled, disposition)
	// 回滚后订单仍可被下一次重试处理
	assert.Equal(t, domain.StatusPendingPayment, f.orders.orders["order-1"].Status)
	assert.Empty(t, f.orders.orders["order-1"].PaymentID)
}

func Test_sleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))
	require.NoError(t, sleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
