// internal/service/fulfillment/application/orchestrator.go
package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tradepost/internal/service/fulfillment/domain"
)

// fulfill 是履约的原子单元，必须运行在一个数据库事务内（由调用方保证）。
// 任何一步失败整个单元失败，数据库效果回滚。
// 返回值 captured 标记支付是否已在网关侧扣款成功——这是事务之外的副作用，
// 回滚不会撤销它。
func (s *FulfillmentService) fulfill(ctx context.Context, order *domain.Order, user *domain.User, event *domain.ProcessingEvent) (captured bool, err error) {
	ctx, span := s.tracer.Start(ctx, "app.Fulfill")
	defer span.End()

	req := event.Request

	// 1. 收款。网关返回的非成功结果转成 PaymentError（默认可重试）。
	payment, err := s.payments.Capture(ctx, order, user, req.Payment)
	if err != nil {
		return false, errors.Wrap(err, "payment capture call failed")
	}
	if !payment.Successful() {
		return false, &domain.PaymentError{Reason: payment.Reason}
	}
	captured = true
	span.AddEvent("Payment captured.", trace.WithAttributes(attribute.String("payment.id", payment.ID)))

	// 2. 挂接支付引用
	if err := order.AttachPayment(payment.ID); err != nil {
		return captured, err
	}

	// 3. 按请求载荷里的收件人信息创建运单并挂接
	shipment, err := s.shipments.Create(ctx, order, req.ReceiverName, req.ReceiverPhone, req.PostalCode, req.Address)
	if err != nil {
		return captured, errors.Wrap(err, "shipment creation failed")
	}
	if err := order.AttachShipment(shipment.ID); err != nil {
		return captured, err
	}
	span.AddEvent("Shipment created.", trace.WithAttributes(attribute.String("shipment.id", shipment.ID)))

	// 4. PENDING_PAYMENT -> PAYMENT_COMPLETED，非法迁移立即失败
	if err := order.TransitionTo(domain.StatusPaymentCompleted); err != nil {
		return captured, err
	}

	// 5. 入仓分支 / 直邮分支
	if req.WantsStorage {
		storage, err := s.warehouse.CreateStorage(ctx, order, user)
		if err != nil {
			return captured, errors.Wrap(err, "warehouse storage creation failed")
		}
		if err := order.AttachStorage(storage.ID); err != nil {
			return captured, err
		}
		span.AddEvent("Warehouse storage created.", trace.WithAttributes(attribute.String("storage.id", storage.ID)))

		// 逐步推进，只在迁移合法时应用；已经走过的状态直接跳过，
		// 容忍上一轮部分执行留下的良性进度
		order.AdvanceIfLegal(domain.StatusPreparing)
		order.AdvanceIfLegal(domain.StatusInWarehouse)
		order.AdvanceIfLegal(domain.StatusCompleted)
	} else {
		// 直邮订单推进到 PREPARING 为止
		order.AdvanceIfLegal(domain.StatusPreparing)
	}

	// 6. 持久化
	if err := s.orders.Save(ctx, order); err != nil {
		return captured, errors.Wrap(err, "failed to save fulfilled order")
	}
	return captured, nil
}
