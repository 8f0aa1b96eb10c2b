// internal/pkg/push/hub.go
package push

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 管理端与服务同域部署，允许所有来源
		return true
	},
}

// Hub 维护所有活跃的管理端连接，并负责消息广播
type Hub struct {
	clients    map[string]*Client // 使用 sid 作为 Key
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	lock       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run 处理连接的注册与注销，ctx 取消时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			if old, ok := h.clients[client.sid]; ok {
				// 同一个 sid 重连，踢掉旧连接
				close(old.send)
			}
			h.clients[client.sid] = client
			h.lock.Unlock()
			log.Info().Str("sid", client.sid).Msg("websocket client registered")
		case client := <-h.unregister:
			h.lock.Lock()
			if current, ok := h.clients[client.sid]; ok && current == client {
				delete(h.clients, client.sid)
				close(client.send)
			}
			h.lock.Unlock()
			log.Info().Str("sid", client.sid).Msg("websocket client unregistered")
		case <-ctx.Done():
			h.lock.Lock()
			for sid, client := range h.clients {
				close(client.send)
				delete(h.clients, sid)
			}
			h.lock.Unlock()
			return
		}
	}
}

// Broadcast 向所有客户端推送消息，发送缓冲已满的客户端本次被跳过
func (h *Hub) Broadcast(message []byte) int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	sent := 0
	for sid, client := range h.clients {
		select {
		case client.send <- message:
			sent++
		default:
			log.Warn().Str("sid", sid).Msg("websocket send buffer full, message dropped")
		}
	}
	return sent
}

// Count 返回当前连接数
func (h *Hub) Count() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

// ServeWs 把 HTTP 请求升级为 websocket 并注册到 Hub
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, sid string) {
	if sid == "" {
		http.Error(w, "sid is required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("sid", sid).Msg("websocket upgrade failed")
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256), sid: sid}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Client 是一个 websocket 连接的代表
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	sid  string
}

// writePump 负责将 send channel 中的消息写入 websocket，并定期发送 ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息（只记录日志）并处理心跳
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("sid", c.sid).Msg("websocket closed unexpectedly")
			}
			return
		}
		log.Debug().Str("sid", c.sid).Str("message", string(message)).Msg("received message from client")
	}
}
