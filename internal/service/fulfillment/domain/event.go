// internal/service/fulfillment/domain/event.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// 重试退避的参数: delay = min(1000ms * retryCount, 5000ms)
const (
	retryDelayStep = 1000 * time.Millisecond
	retryDelayCap  = 5000 * time.Millisecond
)

// FulfillmentRequest 是事件携带的请求载荷快照：支付信息、收件人信息、是否入仓。
// 随事件冻结，重试时原样复用。
type FulfillmentRequest struct {
	Payment       PaymentRequest `json:"payment"`
	ReceiverName  string         `json:"receiverName"`
	ReceiverPhone string         `json:"receiverPhone"`
	PostalCode    string         `json:"postalCode"`
	Address       string         `json:"address"`
	WantsStorage  bool           `json:"wantsStorage"` // true 时走入仓路径
}

// ProcessingEvent 是触发一次订单履约的不可变消息。
// 以 OrderID 作为 Kafka 分区键，保证同一订单的事件串行处理。
type ProcessingEvent struct {
	EventID    string             `json:"eventId"`
	OrderID    string             `json:"orderId"`
	UserID     string             `json:"userId"` // 发起请求的用户身份
	Request    FulfillmentRequest `json:"request"`
	RetryCount int                `json:"retryCount"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// NewProcessingEvent 构造一个全新的履约事件，retryCount 从 0 开始。
func NewProcessingEvent(orderID, userID string, req FulfillmentRequest) *ProcessingEvent {
	return &ProcessingEvent{
		EventID:    uuid.New().String(),
		OrderID:    orderID,
		UserID:     userID,
		Request:    req,
		RetryCount: 0,
		CreatedAt:  time.Now(),
	}
}

// NextRetry 从当前事件派生一个重试事件：新的 EventID，retryCount+1，
// 同一个 OrderID（因此落在同一条有序通道上），载荷原样保留。
func (e *ProcessingEvent) NextRetry() *ProcessingEvent {
	return &ProcessingEvent{
		EventID:    uuid.New().String(),
		OrderID:    e.OrderID,
		UserID:     e.UserID,
		Request:    e.Request,
		RetryCount: e.RetryCount + 1,
		CreatedAt:  time.Now(),
	}
}

// RetryDelay 计算第 retryCount 次重试前的退避时长，单调不减并有上限。
func RetryDelay(retryCount int) time.Duration {
	d := time.Duration(retryCount) * retryDelayStep
	if d > retryDelayCap {
		return retryDelayCap
	}
	return d
}
