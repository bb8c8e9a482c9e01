package push

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID, orderID string, buffer int) *Client {
	return &Client{send: make(chan []byte, buffer), userID: userID, orderID: orderID}
}

func registerAndWait(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.register <- c
	require.Eventually(t, func() bool {
		hub.lock.RLock()
		defer hub.lock.RUnlock()
		if c.userID != "" {
			_, ok := hub.users[c.userID][c]
			return ok
		}
		_, ok := hub.orders[c.orderID][c]
		return ok
	}, time.Second, time.Millisecond)
}

func TestHub_DeliverToUser(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	first := newTestClient("user-1", "", 1)
	second := newTestClient("user-1", "", 1)
	other := newTestClient("user-2", "", 1)
	registerAndWait(t, hub, first)
	registerAndWait(t, hub, second)
	registerAndWait(t, hub, other)

	delivered := hub.DeliverToUser("user-1", []byte("hello"))

	// 同一用户的所有会话各收到一份，其他用户不受影响
	assert.Equal(t, 2, delivered)
	assert.Equal(t, []byte("hello"), <-first.send)
	assert.Equal(t, []byte("hello"), <-second.send)
	assert.Empty(t, other.send)

	assert.Equal(t, 0, hub.DeliverToUser("user-unknown", []byte("hello")))
}

func TestHub_BroadcastOrder(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	watcherA := newTestClient("", "order-1", 1)
	watcherB := newTestClient("", "order-1", 1)
	registerAndWait(t, hub, watcherA)
	registerAndWait(t, hub, watcherB)

	delivered := hub.BroadcastOrder("order-1", []byte("fulfilled"))

	assert.Equal(t, 2, delivered)
	assert.Equal(t, []byte("fulfilled"), <-watcherA.send)
	assert.Equal(t, []byte("fulfilled"), <-watcherB.send)
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := newTestClient("user-1", "", 1)
	registerAndWait(t, hub, slow)
	slow.send <- []byte("backlog") // 填满发送缓冲

	done := make(chan int, 1)
	go func() {
		done <- hub.DeliverToUser("user-1", []byte("dropped"))
	}()

	select {
	case delivered := <-done:
		// 缓冲已满的慢连接丢消息，投递方不阻塞
		assert.Equal(t, 0, delivered)
	case <-time.After(time.Second):
		t.Fatal("DeliverToUser blocked on a slow client")
	}
}

func TestHub_UnregisterClosesSendOnce(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newTestClient("user-1", "", 1)
	registerAndWait(t, hub, c)

	hub.unregister <- c
	require.Eventually(t, func() bool {
		hub.lock.RLock()
		defer hub.lock.RUnlock()
		_, ok := hub.users["user-1"]
		return !ok
	}, time.Second, time.Millisecond)

	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.DeliverToUser("user-1", []byte("gone")))

	// 重复注销是无副作用的空操作
	hub.unregister <- c
	assert.Equal(t, 0, hub.DeliverToUser("user-1", []byte("still gone")))
}
