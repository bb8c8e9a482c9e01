// internal/service/fulfillment/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tradepost/internal/pkg/logger"
	"tradepost/internal/service/fulfillment/domain"
	"tradepost/internal/service/fulfillment/port"
)

// Disposition 是一次事件处理的最终处置。
// 每一个取值都对应"提交 offset"：消息在任何路径下都不会悬而不决，
// 否则 broker 层的重投会形成毒消息循环。
type Disposition int

const (
	DispositionProcessed       Disposition = iota // 成功，或幂等空操作
	DispositionRetryScheduled                     // 已派生重试事件
	DispositionTerminalFailure                    // 终态失败，已通知用户
	DispositionAborted                            // 等待被中断，干净退出
)

func (d Disposition) String() string {
	switch d {
	case DispositionRetryScheduled:
		return "retry_scheduled"
	case DispositionTerminalFailure:
		return "terminal_failure"
	case DispositionAborted:
		return "aborted"
	default:
		return "processed"
	}
}

// FulfillmentService 编排订单履约：收款、创建运单、可选入仓、状态推进、通知。
// 核心约束：编排步骤运行在一个数据库事务里；订单行是唯一的幂等控制点。
type FulfillmentService struct {
	orders    domain.OrderRepository
	users     domain.UserRepository
	tx        port.TransactionManager
	payments  port.PaymentGateway
	shipments port.ShipmentService
	warehouse port.WarehouseService
	producer  port.EventProducer
	notifier  port.NotificationDispatcher

	maxRetries int
	tracer     trace.Tracer

	// 重试退避的等待实现，测试中可替换
	wait func(ctx context.Context, d time.Duration) error
}

func NewFulfillmentService(
	orders domain.OrderRepository,
	users domain.UserRepository,
	tx port.TransactionManager,
	payments port.PaymentGateway,
	shipments port.ShipmentService,
	warehouse port.WarehouseService,
	producer port.EventProducer,
	notifier port.NotificationDispatcher,
	maxRetries int,
	tracer trace.Tracer,
) *FulfillmentService {
	return &FulfillmentService{
		orders: orders, users: users, tx: tx,
		payments: payments, shipments: shipments, warehouse: warehouse,
		producer: producer, notifier: notifier,
		maxRetries: maxRetries, tracer: tracer,
		wait: sleepContext,
	}
}

// RequestFulfillment 是暴露给接口层的入口：只负责构造事件并入队，立即返回。
// 处理结果之后通过推送/广播通知异步送达。
func (s *FulfillmentService) RequestFulfillment(ctx context.Context, req *FulfillOrderRequest) (*FulfillOrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.RequestFulfillment")
	defer span.End()

	event := domain.NewProcessingEvent(req.OrderID, req.UserID, req.Request)
	if err := s.producer.PublishProcessing(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to enqueue fulfillment event")
		return nil, err
	}

	span.AddEvent("Fulfillment event sent to Kafka queue.")
	logger.Ctx(ctx).Info().
		Str("orderId", req.OrderID).
		Str("eventId", event.EventID).
		Msg("fulfillment request enqueued")

	return &FulfillOrderResponse{
		OrderID: req.OrderID,
		EventID: event.EventID,
		Message: "Your order is being processed.",
	}, nil
}

// HandleEvent 是消费侧的业务处理入口，由 Kafka 消费适配器驱动。
// 处理顺序: 幂等检查 -> 鉴权 -> 单事务编排 -> 成功通知 / 失败分类。
// 它从不向外抛错误：所有失败都在这里被分类并转化为一个处置。
func (s *FulfillmentService) HandleEvent(ctx context.Context, event *domain.ProcessingEvent) Disposition {
	ctx, span := s.tracer.Start(ctx, "app.HandleFulfillmentEvent",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("order.id", event.OrderID),
			attribute.String("event.id", event.EventID),
			attribute.Int("event.retry_count", event.RetryCount),
		))
	defer span.End()

	// 1. 幂等检查：状态已离开 PENDING_PAYMENT 的订单视为已处理，零副作用退出
	order, err := s.orders.FindByID(ctx, event.OrderID)
	if err != nil {
		span.RecordError(err)
		return s.resolveFailure(ctx, event, domain.StatusPendingPayment, false, err)
	}
	if !order.Fulfillable() {
		span.AddEvent("Order already past PENDING_PAYMENT, skipping.")
		logger.Ctx(ctx).Info().
			Str("orderId", order.ID).
			Str("status", string(order.Status)).
			Msg("duplicate delivery for already-handled order, acknowledging")
		return DispositionProcessed
	}

	// 2. 鉴权：事件里的请求者必须是订单归属人
	user, err := s.users.FindByID(ctx, event.UserID)
	if err != nil {
		span.RecordError(err)
		return s.resolveFailure(ctx, event, order.Status, false, err)
	}
	if !order.OwnedBy(user.ID) {
		span.SetStatus(codes.Error, "requesting user is not the order owner")
		return s.resolveFailure(ctx, event, order.Status, false, domain.ErrNotOrderOwner)
	}

	// 3. 单事务编排。协作方调用不在事务内，见 resolveFailure 里的人工介入日志。
	captured := false
	txErr := s.tx.Do(ctx, func(txCtx context.Context) error {
		var ferr error
		captured, ferr = s.fulfill(txCtx, order, user, event)
		return ferr
	})
	if txErr != nil {
		span.RecordError(txErr)
		span.SetStatus(codes.Error, "Fulfillment failed")
		return s.resolveFailure(ctx, event, domain.StatusPendingPayment, captured, txErr)
	}

	// 4. 成功：推送双通道通知 + 持久化 fan-out
	span.AddEvent("Order fulfilled.", trace.WithAttributes(attribute.String("final.status", string(order.Status))))
	logger.Ctx(ctx).Info().
		Str("orderId", order.ID).
		Str("status", string(order.Status)).
		Msg("✅ order fulfilled")
	s.notifier.Dispatch(ctx, domain.NewSuccessNotification(order, successMessage(order)))
	return DispositionProcessed
}

// HandleRetryEvent 处理重试事件：先检查重试上限，再做幂等预检，
// 等待有界退避后重新执行与首次处理完全相同的流程。
func (s *FulfillmentService) HandleRetryEvent(ctx context.Context, event *domain.ProcessingEvent) Disposition {
	ctx, span := s.tracer.Start(ctx, "app.HandleRetryEvent",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("order.id", event.OrderID),
			attribute.Int("event.retry_count", event.RetryCount),
		))
	defer span.End()

	// 重试上限优先于其它一切判断
	if event.RetryCount >= s.maxRetries {
		span.SetStatus(codes.Error, "retry ceiling reached")
		logger.Ctx(ctx).Warn().
			Str("orderId", event.OrderID).
			Int("retryCount", event.RetryCount).
			Msg("retry ceiling reached, resolving to terminal failure")
		s.notifier.Dispatch(ctx, domain.NewFailureNotification(
			event.OrderID, event.UserID, domain.StatusPendingPayment,
			"order could not be fulfilled after repeated attempts"))
		return DispositionTerminalFailure
	}

	// 退避之前先做一次幂等预检，避免为一个已完成的订单白等
	if order, err := s.orders.FindByID(ctx, event.OrderID); err == nil && !order.Fulfillable() {
		span.AddEvent("Order already handled, skipping retry.")
		return DispositionProcessed
	}

	delay := domain.RetryDelay(event.RetryCount)
	span.AddEvent("Backing off before retry.", trace.WithAttributes(attribute.Int64("delay.ms", delay.Milliseconds())))
	if err := s.wait(ctx, delay); err != nil {
		// 等待被中断：确认消息并干净退出，不产生任何副作用
		logger.Ctx(ctx).Warn().Err(err).
			Str("orderId", event.OrderID).
			Msg("retry backoff interrupted, aborting without side effects")
		return DispositionAborted
	}

	return s.HandleEvent(ctx, event)
}

// resolveFailure 把一个错误分类为 Retryable/Terminal 并执行相应的动作。
// captured 标记本轮是否已向网关成功扣款：数据库回滚不会撤销它，
// 终态失败时必须大声留痕，交由人工介入退款。
func (s *FulfillmentService) resolveFailure(ctx context.Context, event *domain.ProcessingEvent, lastStatus domain.Status, captured bool, err error) Disposition {
	outcome := domain.Classify(err)
	logger.Ctx(ctx).Error().Err(err).
		Str("orderId", event.OrderID).
		Str("outcome", outcome.String()).
		Int("retryCount", event.RetryCount).
		Msg("fulfillment attempt failed")

	if outcome == domain.OutcomeRetryable && event.RetryCount < s.maxRetries {
		if perr := s.producer.PublishRetry(ctx, event); perr == nil {
			return DispositionRetryScheduled
		} else {
			// 重试事件都发不出去，只能转终态，否则消息会被静默吞掉
			logger.Ctx(ctx).Error().Err(perr).
				Str("orderId", event.OrderID).
				Msg("failed to publish retry event, resolving to terminal failure")
		}
	}

	if captured {
		// 扣款成功但后续步骤永久失败：本设计没有自动退款的补偿动作
		logger.Ctx(ctx).Error().
			Str("orderId", event.OrderID).
			Str("userId", event.UserID).
			Msg("🚨 CRITICAL: payment captured but fulfillment terminally failed; manual refund required")
	}

	s.notifier.Dispatch(ctx, domain.NewFailureNotification(event.OrderID, event.UserID, lastStatus, err.Error()))
	return DispositionTerminalFailure
}

func successMessage(order *domain.Order) string {
	if order.Status == domain.StatusCompleted {
		return "Payment captured and your item has been stored in our warehouse."
	}
	return "Payment captured. The seller is preparing your shipment."
}

// sleepContext 阻塞 d 时长，ctx 被取消时提前返回其错误。
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
