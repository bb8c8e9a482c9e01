// internal/service/push/hub.go
package push

import (
	"context"
	"sync"

	"tradepost/internal/pkg/logger"
)

// Hub 维护所有活跃的 WebSocket 连接。
// 一个连接挂在两种通道之一：用户通道（买家会话）或订单通道
// （同一订单可以有多个并发观察者，比如后台看板）。
type Hub struct {
	users  map[string]map[*Client]struct{} // key: userID
	orders map[string]map[*Client]struct{} // key: orderID

	register   chan *Client
	unregister chan *Client
	lock       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		users:      make(map[string]map[*Client]struct{}),
		orders:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run 处理连接的注册与注销，直到 ctx 被取消。
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			h.attach(client)
			h.lock.Unlock()
			logger.Ctx(ctx).Info().
				Str("userId", client.userID).
				Str("orderId", client.orderID).
				Msg("push client registered")
		case client := <-h.unregister:
			h.lock.Lock()
			h.detach(client)
			h.lock.Unlock()
			logger.Ctx(ctx).Info().
				Str("userId", client.userID).
				Str("orderId", client.orderID).
				Msg("push client unregistered")
		case <-ctx.Done():
			logger.Ctx(ctx).Info().Msg("🛑 push hub shutting down")
			h.closeAll()
			return ctx.Err()
		}
	}
}

func (h *Hub) attach(c *Client) {
	if c.userID != "" {
		if h.users[c.userID] == nil {
			h.users[c.userID] = make(map[*Client]struct{})
		}
		h.users[c.userID][c] = struct{}{}
	}
	if c.orderID != "" {
		if h.orders[c.orderID] == nil {
			h.orders[c.orderID] = make(map[*Client]struct{})
		}
		h.orders[c.orderID][c] = struct{}{}
	}
}

func (h *Hub) detach(c *Client) {
	if set, ok := h.users[c.userID]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(h.users, c.userID)
			}
			return
		}
	}
	if set, ok := h.orders[c.orderID]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(h.orders, c.orderID)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for _, set := range h.users {
		for c := range set {
			close(c.send)
		}
	}
	for _, set := range h.orders {
		for c := range set {
			close(c.send)
		}
	}
	h.users = make(map[string]map[*Client]struct{})
	h.orders = make(map[string]map[*Client]struct{})
}

// DeliverToUser 把消息投递给某个用户的所有活跃会话。
// 发送缓冲已满的慢连接直接丢弃该条消息，不阻塞投递方。
func (h *Hub) DeliverToUser(userID string, payload []byte) int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	delivered := 0
	for c := range h.users[userID] {
		select {
		case c.send <- payload:
			delivered++
		default:
		}
	}
	return delivered
}

// BroadcastOrder 把消息广播给订单频道的所有观察者。
func (h *Hub) BroadcastOrder(orderID string, payload []byte) int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	delivered := 0
	for c := range h.orders[orderID] {
		select {
		case c.send <- payload:
			delivered++
		default:
		}
	}
	return delivered
}
