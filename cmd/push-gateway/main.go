// cmd/push-gateway/main.go
package main

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradepost/internal/pkg/bootstrap"
	"tradepost/internal/pkg/logger"
	"tradepost/internal/pkg/redis"
	"tradepost/internal/pkg/session"
	"tradepost/internal/service/push"
)

const serviceName = "push-gateway"

// 推送网关是无状态的：每个节点订阅全部推送频道，只向本地持有的连接投递。
// 节点 ID 写入会话存储，供通知服务判断用户是否在线。
func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	nodeID := serviceName + "-" + uuid.NewString()[:8]

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to connect to redis")
	}
	sessions := session.NewManager(redisClient)

	hub := push.NewHub()
	subscriber := push.NewRedisSubscriber(redisClient, hub)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8082,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				push.ServeUserWS(hub, sessions, nodeID, w, r)
			})
			appCtx.Mux.HandleFunc("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
				push.ServeOrderWS(hub, w, r)
			})
		},
		Runners: []bootstrap.Runner{
			hub.Run,
			subscriber.Run,
		},
		OnShutdown: func(ctx context.Context) {
			if err := redisClient.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("failed to close redis client")
			}
		},
	})
}
