// internal/service/fulfillment/domain/notification.go
package domain

import "time"

// NotificationOutcome 标记一次履约的最终结果。
type NotificationOutcome string

const (
	NotificationSuccess NotificationOutcome = "SUCCESS"
	NotificationFailed  NotificationOutcome = "FAILED"
)

// Notification 是履约结果对外的载体。
// 同一条通知会走三个通道：用户定向推送、订单广播、持久化 fan-out。
type Notification struct {
	OrderID   string              `json:"orderId"`
	UserID    string              `json:"userId"`
	Status    Status              `json:"status"` // 订单当前（最后稳定）状态
	Outcome   NotificationOutcome `json:"type"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	Timestamp time.Time           `json:"timestamp"`
	Retryable bool                `json:"retryable"` // 失败是否还会自动重试
}

// NewSuccessNotification 构造履约成功的通知。
func NewSuccessNotification(order *Order, message string) Notification {
	return Notification{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		Outcome:   NotificationSuccess,
		Title:     "Order fulfilled",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewFailureNotification 构造终态失败的通知。retryable 恒为 false：
// 还会自动重试的失败不打扰用户。
func NewFailureNotification(orderID, userID string, status Status, reason string) Notification {
	return Notification{
		OrderID:   orderID,
		UserID:    userID,
		Status:    status,
		Outcome:   NotificationFailed,
		Title:     "Order fulfillment failed",
		Message:   reason,
		Timestamp: time.Now(),
		Retryable: false,
	}
}
