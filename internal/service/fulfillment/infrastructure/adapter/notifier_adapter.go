// internal/service/fulfillment/infrastructure/adapter/notifier_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"tradepost/internal/pkg/logger"
	"tradepost/internal/pkg/mq"
	"tradepost/internal/pkg/redis"
	"tradepost/internal/service/fulfillment/domain"
)

// 实时推送的频道命名。推送网关按相同模式订阅。
func userChannel(userID string) string {
	return fmt.Sprintf("push:user:%s", userID)
}

func orderChannel(orderID string) string {
	return fmt.Sprintf("push:order:%s", orderID)
}

// DurableNotification 是写入持久化 fan-out 主题的消息结构，
// 下游的邮件/短信消费者使用。
type DurableNotification struct {
	Type      string `json:"type"`
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// NotifierAdapter 实现 port.NotificationDispatcher。
// 每次分发走三个通道：
//  1. Redis PUBLISH 到用户定向频道（在线会话的实时推送）
//  2. Redis PUBLISH 到订单广播频道（多个并发观察者，如后台看板）
//  3. Kafka 持久化 fan-out（邮件/短信等下游）
// 三个通道都是尽力而为：失败只记日志，绝不影响履约结果。
type NotifierAdapter struct {
	redisClient   *redis.Client
	durableWriter *kafka.Writer
}

func NewNotifierAdapter(redisClient *redis.Client, durableWriter *kafka.Writer) *NotifierAdapter {
	return &NotifierAdapter{
		redisClient:   redisClient,
		durableWriter: durableWriter,
	}
}

func (a *NotifierAdapter) Dispatch(ctx context.Context, n domain.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("orderId", n.OrderID).Msg("failed to marshal notification")
		return
	}

	// 1. 用户定向推送
	if err := a.redisClient.Publish(ctx, userChannel(n.UserID), payload); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("channel", userChannel(n.UserID)).
			Msg("failed to publish direct push notification")
	}

	// 2. 订单广播
	if err := a.redisClient.Publish(ctx, orderChannel(n.OrderID), payload); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("channel", orderChannel(n.OrderID)).
			Msg("failed to publish order broadcast notification")
	}

	// 3. 持久化 fan-out
	durable := DurableNotification{
		Type:      string(n.Outcome),
		OrderID:   n.OrderID,
		UserID:    n.UserID,
		Message:   n.Message,
		Timestamp: n.Timestamp.UnixMilli(),
	}
	durableBytes, err := json.Marshal(durable)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("orderId", n.OrderID).Msg("failed to marshal durable notification")
		return
	}
	if err := mq.ProduceMessage(ctx, a.durableWriter, []byte(n.UserID), durableBytes); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("orderId", n.OrderID).
			Msg("failed to produce durable notification")
	}
}

// Close 关闭持久化通道的 writer。
func (a *NotifierAdapter) Close() error {
	return a.durableWriter.Close()
}
