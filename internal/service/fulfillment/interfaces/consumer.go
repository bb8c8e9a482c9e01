// internal/service/fulfillment/interfaces/consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tradepost/internal/pkg/logger"
	"tradepost/internal/pkg/mq"
	"tradepost/internal/service/fulfillment/application"
	"tradepost/internal/service/fulfillment/domain"
)

// HandleFunc 是应用层的事件入口（首发处理或重试处理）。
type HandleFunc func(ctx context.Context, event *domain.ProcessingEvent) application.Disposition

// ConsumerAdapter 是驱动适配器：监听一个 Kafka 主题并驱动应用服务。
// 确认契约：每条消息在所有处置下都提交 offset——成功、幂等跳过、
// 已派生重试、终态失败，没有例外。解析不了的消息记日志后同样提交。
type ConsumerAdapter struct {
	reader *kafka.Reader
	handle HandleFunc
	tracer trace.Tracer
}

func NewConsumerAdapter(reader *kafka.Reader, handle HandleFunc) *ConsumerAdapter {
	return &ConsumerAdapter{
		reader: reader,
		handle: handle,
		tracer: otel.Tracer("fulfillment-consumer"),
	}
}

// Run 阻塞消费直到 ctx 被取消。作为 bootstrap.Runner 使用。
func (a *ConsumerAdapter) Run(ctx context.Context) error {
	topic := a.reader.Config().Topic
	logger.Ctx(ctx).Info().Str("topic", topic).Msg("✅ Kafka consumer adapter started")

	for {
		// 使用 FetchMessage 而不是 ReadMessage，提交流程由我们自己控制
		msg, err := a.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Ctx(ctx).Info().Str("topic", topic).Msg("🛑 Kafka consumer adapter shutting down")
				return a.reader.Close()
			}
			logger.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("could not read message, retrying")
			time.Sleep(1 * time.Second) // 避免快速失败循环
			continue
		}

		disposition := a.processMessage(ctx, msg)

		// 无论处置如何都提交 offset
		if err := a.reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("failed to commit message")
		}
		eventsConsumed.WithLabelValues(topic, disposition.String()).Inc()
	}
}

// processMessage 重建追踪上下文、反序列化并调用应用服务。
func (a *ConsumerAdapter) processMessage(parentCtx context.Context, msg kafka.Message) application.Disposition {
	ctx := mq.ExtractTraceContext(parentCtx, msg.Headers)
	ctx, span := a.tracer.Start(ctx, "consumer.ProcessMessage",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
			attribute.String("messaging.kafka.message.key", string(msg.Key)),
		))
	defer span.End()

	var event domain.ProcessingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// 结构坏掉的消息没有重试的意义，记录后丢弃
		logger.Ctx(ctx).Error().Err(err).
			Str("topic", msg.Topic).
			Str("key", string(msg.Key)).
			Msg("failed to unmarshal event, discarding message")
		eventsDiscarded.WithLabelValues(msg.Topic).Inc()
		span.RecordError(err)
		return application.DispositionProcessed
	}

	return a.handle(ctx, &event)
}
