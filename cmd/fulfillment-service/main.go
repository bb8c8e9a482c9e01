// cmd/fulfillment-service/main.go
package main

import (
	"context"

	"go.opentelemetry.io/otel"

	"tradepost/internal/pkg/bootstrap"
	"tradepost/internal/pkg/httpclient"
	"tradepost/internal/pkg/logger"
	"tradepost/internal/pkg/mq"
	"tradepost/internal/pkg/redis"
	"tradepost/internal/service/fulfillment/application"
	"tradepost/internal/service/fulfillment/infrastructure"
	"tradepost/internal/service/fulfillment/infrastructure/adapter"
	"tradepost/internal/service/fulfillment/interfaces"
)

const (
	serviceName = "fulfillment-service"

	orderProcessingTopic = "order-processing"
	orderRetryTopic      = "order-retry"
	notificationTopic    = "notifications"

	processingGroupID = "fulfillment-processing-group"
	retryGroupID      = "fulfillment-retry-group"
)

// main 是应用的"组装根" (Composition Root)：
// 创建并组装所有依赖项，然后把消费者交给 bootstrap 监督运行。
func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	// 1. 基础设施
	db, err := infrastructure.NewDB(infrastructure.MySQLConfig{
		Addr:     cfg.Infra.MySQL.Addr,
		User:     cfg.Infra.MySQL.User,
		Password: cfg.Infra.MySQL.Password,
		Database: cfg.Infra.MySQL.Database,
	})
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to connect to mysql")
	}

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to connect to redis")
	}

	brokers := cfg.Infra.Kafka.Brokers

	// 履约事件用同步 Writer：入队接口需要发布确认后才能返回 202
	processingWriter := mq.NewSyncKafkaWriter(brokers, orderProcessingTopic)
	retryWriter := mq.NewSyncKafkaWriter(brokers, orderRetryTopic)
	// 通知是尽力而为的，用异步 Writer
	durableWriter := mq.NewKafkaWriter(brokers, notificationTopic)

	processingReader := mq.NewKafkaReader(brokers, orderProcessingTopic, processingGroupID)
	retryReader := mq.NewKafkaReader(brokers, orderRetryTopic, retryGroupID)

	// 2. 出站适配器
	tracer := otel.Tracer(serviceName)
	httpClient := httpclient.NewClient(tracer)

	orders := infrastructure.NewGormOrderRepository(db)
	users := infrastructure.NewGormUserRepository(db)
	txManager := infrastructure.NewGormTransactionManager(db)

	producer := adapter.NewEventProducerAdapter(processingWriter, retryWriter, cfg.App.MaxRetries)
	notifier := adapter.NewNotifierAdapter(redisClient, durableWriter)
	payments := adapter.NewPaymentHTTPAdapter(httpClient, cfg.Infra.Services.Payment)
	shipments := adapter.NewShipmentHTTPAdapter(httpClient, cfg.Infra.Services.Shipment)
	warehouse := adapter.NewWarehouseHTTPAdapter(httpClient, cfg.Infra.Services.Warehouse)

	// 3. 应用服务与驱动适配器
	service := application.NewFulfillmentService(
		orders, users, txManager,
		payments, shipments, warehouse,
		producer, notifier,
		cfg.App.MaxRetries, tracer,
	)

	processingConsumer := interfaces.NewConsumerAdapter(processingReader, service.HandleEvent)
	retryConsumer := interfaces.NewConsumerAdapter(retryReader, service.HandleRetryEvent)
	handler := interfaces.NewFulfillmentHandler(service)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8081,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		Runners: []bootstrap.Runner{
			processingConsumer.Run,
			retryConsumer.Run,
		},
		OnShutdown: func(ctx context.Context) {
			if err := producer.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close event producer")
			}
			if err := notifier.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close notifier")
			}
			if err := redisClient.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close redis client")
			}
		},
	})
}
