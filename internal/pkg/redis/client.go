// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 客户端，集中管理连接配置。
type Client struct {
	rdb *goredis.Client
}

// NewClient 创建并验证一个 Redis 连接。
func NewClient(addr string) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端，供需要 Pipeline/PubSub 等高级能力的调用方使用。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// Publish 向指定频道发布一条消息。
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.rdb.Publish(ctx, channel, payload).Err()
}

// PSubscribe 按模式订阅频道。
func (c *Client) PSubscribe(ctx context.Context, patterns ...string) *goredis.PubSub {
	return c.rdb.PSubscribe(ctx, patterns...)
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
