// cmd/notification-service/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tradepost/internal/pkg/bootstrap"
	"tradepost/internal/pkg/logger"
	"tradepost/internal/pkg/mq"
	"tradepost/internal/pkg/redis"
	"tradepost/internal/pkg/session"
)

const (
	serviceName       = "notification-service"
	notificationTopic = "notifications"
	consumerGroupID   = "notification-group"
)

// DurableNotification 是持久化 fan-out 主题上的消息结构，
// 与履约服务的分发器写入的结构保持一致。
type DurableNotification struct {
	Type      string `json:"type"`
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// fanoutConsumer 消费持久化通知：在线用户已经通过推送网关收到实时消息，
// 离线用户在这里走邮件/短信兜底。投递失败只记日志，不重试。
type fanoutConsumer struct {
	reader   *kafka.Reader
	sessions *session.Manager
	tracer   trace.Tracer
}

func (c *fanoutConsumer) Run(ctx context.Context) error {
	logger.Ctx(ctx).Info().Str("topic", notificationTopic).Msg("✅ fan-out consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return c.reader.Close()
			}
			logger.Ctx(ctx).Error().Err(err).Msg("could not fetch message")
			time.Sleep(time.Second)
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("failed to commit offset")
		}
	}
}

func (c *fanoutConsumer) process(ctx context.Context, msg kafka.Message) {
	ctx = mq.ExtractTraceContext(ctx, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "notification.Fanout",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
	defer span.End()

	var n DurableNotification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		// 无法解析的消息直接丢弃，重投也不会变得可解析
		logger.Ctx(ctx).Error().Err(err).Msg("dropping malformed notification")
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed notification")
		return
	}
	span.SetAttributes(
		attribute.String("order.id", n.OrderID),
		attribute.String("user.id", n.UserID),
	)

	// 在线用户已由网关实时推送，离线才走兜底通道
	gateway, err := c.sessions.GetUserGateway(ctx, n.UserID)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("userId", n.UserID).Msg("failed to look up user session")
	}
	if gateway != "" {
		span.AddEvent("User online, realtime push already delivered")
		return
	}

	// 模拟邮件/短信发送
	logger.Ctx(ctx).Info().
		Str("userId", n.UserID).
		Str("orderId", n.OrderID).
		Str("type", n.Type).
		Msgf("Sending offline notification: %s", n.Message)
	span.AddEvent("Offline notification sent")
}

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to connect to redis")
	}

	consumer := &fanoutConsumer{
		reader:   mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, notificationTopic, consumerGroupID),
		sessions: session.NewManager(redisClient),
		tracer:   otel.Tracer(serviceName),
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8083,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
		},
		Runners: []bootstrap.Runner{consumer.Run},
		OnShutdown: func(ctx context.Context) {
			if err := redisClient.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close redis client")
			}
		},
	})
}
