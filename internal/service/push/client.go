// internal/service/push/client.go
package push

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tradepost/internal/pkg/logger"
	"tradepost/internal/pkg/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 推送网关被反向代理托管，跨域校验在边缘完成
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client 是一个 WebSocket 连接的代表。
// userID 和 orderID 恰好有一个非空，决定连接挂在哪种通道上。
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	userID  string
	orderID string
}

// ServeUserWS 升级一个用户会话连接: /ws?userId=...
// 同时在 Redis 会话里登记 用户 -> 网关节点 的映射。
func ServeUserWS(hub *Hub, sessions *session.Manager, nodeID string, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	if err := sessions.SetUserGateway(context.Background(), userID, nodeID); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Str("userId", userID).Msg("failed to set user session")
		conn.Close()
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), userID: userID}
	hub.register <- client

	go client.writePump()
	go client.readPump(func() {
		// 连接断开时清理会话，离线用户走邮件/短信兜底
		if err := sessions.ClearUserGateway(context.Background(), userID); err != nil {
			logger.Ctx(context.Background()).Error().Err(err).Str("userId", userID).Msg("failed to clear user session")
		}
	})
}

// ServeOrderWS 升级一个订单观察连接: /ws/orders?orderId=...
func ServeOrderWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), orderID: orderID}
	hub.register <- client

	go client.writePump()
	go client.readPump(nil)
}

// readPump 读取心跳等入站消息，连接关闭时触发注销。
func (c *Client) readPump(onClose func()) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		if onClose != nil {
			onClose()
		}
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump 把 send 通道里的消息写入 WebSocket，并维持 ping 心跳。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
