// internal/service/fulfillment/domain/order.go
package domain

import (
	"fmt"
	"time"
)

// Order 是订单聚合的根实体。
// 它的数据库行是整条流水线唯一的幂等控制点：
// 状态一旦离开 PENDING_PAYMENT，重复投递的事件就是无副作用的空操作。
type Order struct {
	ID     string
	UserID string // 订单归属的买家
	BidID  string // 竞拍成交的订单携带出价引用，可为空

	Status Status

	// 履约过程中挂接的外部引用，每轮生命周期最多赋值一次
	PaymentID  string
	ShipmentID string
	StorageID  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// User 是买家/卖家的只读快照，履约流程只需要身份和联系方式。
type User struct {
	ID       string
	Nickname string
	Email    string
}

// TransitionTo 执行一次经过迁移图校验的状态变更，非法迁移直接失败。
func (o *Order) TransitionTo(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return nil
}

// AdvanceIfLegal 只在迁移合法时前进，否则跳过。
// 用于容忍上一轮部分执行留下的良性进度：已经走到的状态不再是错误。
func (o *Order) AdvanceIfLegal(next Status) bool {
	if !o.Status.CanTransitionTo(next) {
		return false
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return true
}

// AttachPayment 挂接支付引用。重复赋值说明流程出现了不该出现的二次执行。
func (o *Order) AttachPayment(paymentID string) error {
	if o.PaymentID != "" {
		return fmt.Errorf("%w: payment %s", ErrReferenceAssigned, o.PaymentID)
	}
	o.PaymentID = paymentID
	o.UpdatedAt = time.Now()
	return nil
}

// AttachShipment 挂接运单引用。
func (o *Order) AttachShipment(shipmentID string) error {
	if o.ShipmentID != "" {
		return fmt.Errorf("%w: shipment %s", ErrReferenceAssigned, o.ShipmentID)
	}
	o.ShipmentID = shipmentID
	o.UpdatedAt = time.Now()
	return nil
}

// AttachStorage 挂接入仓记录引用。
func (o *Order) AttachStorage(storageID string) error {
	if o.StorageID != "" {
		return fmt.Errorf("%w: storage %s", ErrReferenceAssigned, o.StorageID)
	}
	o.StorageID = storageID
	o.UpdatedAt = time.Now()
	return nil
}

// Fulfillable 是幂等检查：只有停留在初始状态的订单才会被处理。
func (o *Order) Fulfillable() bool {
	return o.Status == StatusPendingPayment
}

// OwnedBy 校验请求者身份。
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}
