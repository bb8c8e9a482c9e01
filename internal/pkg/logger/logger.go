// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// defaultLogger 是进程级的兜底 Logger，在 Init 之前也可以安全使用。
var defaultLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init 初始化全局日志器，为当前服务打上 service 标签。
// 所有二进制在启动时调用一次。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339
	defaultLogger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	zerolog.DefaultContextLogger = &defaultLogger
}

// Ctx 返回与上下文关联的 Logger；如果上下文里没有，则回退到全局 Logger。
// 用法: logger.Ctx(ctx).Info().Str("orderId", id).Msg("...")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &defaultLogger
	}
	return l
}

// WithContext 将 Logger 附加到上下文中，便于跨层传递结构化字段。
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}
