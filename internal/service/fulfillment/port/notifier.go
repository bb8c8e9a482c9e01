// internal/service/fulfillment/port/notifier.go
package port

import (
	"context"

	"tradepost/internal/service/fulfillment/domain"
)

// NotificationDispatcher 是通知分发的出站端口。
// Dispatch 是尽力而为的：三个通道（定向推送、订单广播、持久化 fan-out）
// 任何一个失败都只记日志，绝不影响履约本身的结果。
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n domain.Notification)
}
