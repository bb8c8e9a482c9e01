// internal/service/fulfillment/port/producer.go
package port

import (
	"context"

	"tradepost/internal/service/fulfillment/domain"
)

// EventProducer 是履约事件生产者的出站端口。
type EventProducer interface {
	// PublishProcessing 发布一个全新的履约事件，以 orderId 为分区键。
	PublishProcessing(ctx context.Context, event *domain.ProcessingEvent) error

	// PublishRetry 发布从 event 派生的重试事件。
	// 已达重试上限时只记日志不发布。
	PublishRetry(ctx context.Context, event *domain.ProcessingEvent) error
}
