// internal/service/fulfillment/infrastructure/adapter/producer_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"tradepost/internal/pkg/logger"
	"tradepost/internal/pkg/mq"
	"tradepost/internal/service/fulfillment/domain"
)

// EventProducerAdapter 实现 port.EventProducer。
// 两个主题共用以 OrderID 为 Key 的 Hash 分区策略：
// 同一订单的首发事件和所有重试事件都落在同一条有序通道上。
type EventProducerAdapter struct {
	processingWriter *kafka.Writer
	retryWriter      *kafka.Writer
	maxRetries       int
}

func NewEventProducerAdapter(processingWriter, retryWriter *kafka.Writer, maxRetries int) *EventProducerAdapter {
	return &EventProducerAdapter{
		processingWriter: processingWriter,
		retryWriter:      retryWriter,
		maxRetries:       maxRetries,
	}
}

// PublishProcessing 发布一个全新的履约事件。
func (a *EventProducerAdapter) PublishProcessing(ctx context.Context, event *domain.ProcessingEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal processing event")
	}
	return mq.ProduceMessage(ctx, a.processingWriter, []byte(event.OrderID), eventBytes)
}

// PublishRetry 发布派生的重试事件。已达上限的事件只记日志，不再发布。
func (a *EventProducerAdapter) PublishRetry(ctx context.Context, event *domain.ProcessingEvent) error {
	if event.RetryCount >= a.maxRetries {
		logger.Ctx(ctx).Warn().
			Str("orderId", event.OrderID).
			Int("retryCount", event.RetryCount).
			Msg("retry ceiling reached, dropping retry event")
		return nil
	}

	retry := event.NextRetry()
	eventBytes, err := json.Marshal(retry)
	if err != nil {
		return errors.Wrap(err, "failed to marshal retry event")
	}
	if err := mq.ProduceMessage(ctx, a.retryWriter, []byte(retry.OrderID), eventBytes); err != nil {
		return errors.Wrap(err, "failed to produce retry event")
	}

	logger.Ctx(ctx).Info().
		Str("orderId", retry.OrderID).
		Str("eventId", retry.EventID).
		Int("retryCount", retry.RetryCount).
		Msg("retry event published")
	return nil
}

// Close 关闭底层的 Kafka writer。
func (a *EventProducerAdapter) Close() error {
	if err := a.processingWriter.Close(); err != nil {
		return err
	}
	return a.retryWriter.Close()
}
