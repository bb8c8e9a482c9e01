// internal/service/push/subscriber.go
package push

import (
	"context"
	"strings"

	"tradepost/internal/pkg/logger"
	"tradepost/internal/pkg/redis"
)

const (
	userChannelPattern  = "push:user:*"
	orderChannelPattern = "push:order:*"
)

// RedisSubscriber 把 Redis Pub/Sub 上的推送消息桥接到本节点的 Hub。
// 每个网关节点都订阅全部频道，消息只会投递给本节点持有的连接，
// 所以多节点部署下天然支持同一订单的多个观察者。
type RedisSubscriber struct {
	client *redis.Client
	hub    *Hub
}

func NewRedisSubscriber(client *redis.Client, hub *Hub) *RedisSubscriber {
	return &RedisSubscriber{client: client, hub: hub}
}

// Run 订阅推送频道并分发消息，直到 ctx 被取消。
func (s *RedisSubscriber) Run(ctx context.Context) error {
	pubsub := s.client.PSubscribe(ctx, userChannelPattern, orderChannelPattern)
	defer pubsub.Close()

	logger.Ctx(ctx).Info().
		Strs("patterns", []string{userChannelPattern, orderChannelPattern}).
		Msg("✅ push subscriber started")

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.route(ctx, msg.Channel, []byte(msg.Payload))
		case <-ctx.Done():
			logger.Ctx(ctx).Info().Msg("🛑 push subscriber shutting down")
			return ctx.Err()
		}
	}
}

// route 根据频道名把消息交给对应的通道。
func (s *RedisSubscriber) route(ctx context.Context, channel string, payload []byte) {
	switch {
	case strings.HasPrefix(channel, "push:user:"):
		userID := strings.TrimPrefix(channel, "push:user:")
		n := s.hub.DeliverToUser(userID, payload)
		logger.Ctx(ctx).Debug().Str("userId", userID).Int("delivered", n).Msg("direct push routed")
	case strings.HasPrefix(channel, "push:order:"):
		orderID := strings.TrimPrefix(channel, "push:order:")
		n := s.hub.BroadcastOrder(orderID, payload)
		logger.Ctx(ctx).Debug().Str("orderId", orderID).Int("delivered", n).Msg("order broadcast routed")
	default:
		logger.Ctx(ctx).Warn().Str("channel", channel).Msg("message on unexpected channel")
	}
}
