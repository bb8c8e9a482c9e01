// internal/pkg/session/manager.go
package session

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"tradepost/internal/pkg/redis"
)

// 会话的有效期。网关会在心跳中续期，网关宕机后会话自动过期。
const sessionTTL = 2 * time.Minute

// Manager 维护 用户 -> 推送网关节点 的在线会话映射。
// fulfillment 侧只用它判断用户是否在线（离线用户走邮件/短信兜底）。
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("session:user:{%s}", userID)
}

// SetUserGateway 记录用户当前连接的网关节点。
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return m.client.GetClient().Set(ctx, sessionKey(userID), nodeID, sessionTTL).Err()
}

// RefreshUserGateway 心跳续期。
func (m *Manager) RefreshUserGateway(ctx context.Context, userID string) error {
	return m.client.GetClient().Expire(ctx, sessionKey(userID), sessionTTL).Err()
}

// GetUserGateway 返回用户所在的网关节点；用户离线时返回空串。
func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	nodeID, err := m.client.GetClient().Get(ctx, sessionKey(userID)).Result()
	if err == goredis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return nodeID, nil
}

// ClearUserGateway 在连接断开时清理会话。
func (m *Manager) ClearUserGateway(ctx context.Context, userID string) error {
	return m.client.GetClient().Del(ctx, sessionKey(userID)).Err()
}
