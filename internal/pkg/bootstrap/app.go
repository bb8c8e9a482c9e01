// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tradepost/internal/pkg/logger"
	"tradepost/internal/pkg/tracing"
)

// AppCtx 在启动阶段传递给服务的注册回调。
type AppCtx struct {
	Mux *http.ServeMux
}

// Runner 是一个长期运行的后台任务（消费者循环、订阅器等）。
// ctx 被取消时必须尽快返回。
type Runner func(ctx context.Context) error

// AppInfo 包含了启动一个服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 每个服务注册自己独特的 HTTP 路由
	Runners          []Runner            // 随服务生命周期运行的后台任务
	OnShutdown       func(ctx context.Context)
}

// StartService 封装了所有服务的通用启动和优雅关停逻辑。
// 后台任务由 errgroup 监督：任何一个任务出错，整个服务关停。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, GetCurrentConfig().Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. HTTP Server
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Ctx(rootCtx).Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Ctx(rootCtx).Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	// 3. 后台任务
	group, groupCtx := errgroup.WithContext(rootCtx)
	for _, runner := range info.Runners {
		r := runner
		group.Go(func() error {
			return r(groupCtx)
		})
	}

	// 4. 等待退出信号或任一后台任务失败
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Ctx(rootCtx).Info().Str("signal", sig.String()).Msgf("Shutting down service %s...", info.ServiceName)
	case <-groupCtx.Done():
		logger.Ctx(rootCtx).Error().Msg("background runner failed, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// 5. 按顺序清理 (后进先出)
	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Ctx(shutdownCtx).Error().Err(err).Msg("background runner exited with error")
	}
	if info.OnShutdown != nil {
		info.OnShutdown(shutdownCtx)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Ctx(shutdownCtx).Error().Err(err).Msg("Error shutting down tracer provider")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Ctx(shutdownCtx).Error().Err(err).Msg("Error shutting down http server")
	}

	logger.Ctx(shutdownCtx).Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}
