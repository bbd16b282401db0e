package service

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"learning_companion_backend/pkg/logger"
	"learning_companion_backend/pkg/monitoring"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

const (
	EventTick  = "QUIZ_TICK"
	EventState = "QUIZ_STATE"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type QuizEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type TickData struct {
	State            QuizState `json:"state"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

type eventClient struct {
	hub     *QuizEventHub
	conn    *websocket.Conn
	send    chan []byte
	key     string
	limiter *rate.Limiter
}

// 客户端只需要回 pong，其余上行消息丢弃，过快则断开
func (c *eventClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("Quiz events unexpected close", zap.String("session", c.key), zap.Error(err))
			}
			return
		}
		if !c.limiter.Allow() {
			logger.Log.Warn("Quiz events client flooding, closing", zap.String("session", c.key))
			return
		}
	}
}

func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// QuizEventHub 按测验会话分组推送事件，只服务本实例持有的会话
type QuizEventHub struct {
	mu      sync.RWMutex
	clients map[string]map[*eventClient]struct{}
}

func NewQuizEventHub() *QuizEventHub {
	return &QuizEventHub{clients: make(map[string]map[*eventClient]struct{})}
}

func (h *QuizEventHub) add(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.key]
	if !ok {
		set = make(map[*eventClient]struct{})
		h.clients[c.key] = set
	}
	set[c] = struct{}{}
	monitoring.QuizEventSubscribers.Inc()
}

func (h *QuizEventHub) remove(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.key]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
		monitoring.QuizEventSubscribers.Dec()
	}
	if len(set) == 0 {
		delete(h.clients, c.key)
	}
}

func (h *QuizEventHub) Subscribers(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[key])
}

// Publish 非阻塞推送，发送缓冲满的客户端丢弃本条
func (h *QuizEventHub) Publish(key string, event QuizEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("Failed to encode quiz event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[key] {
		select {
		case c.send <- payload:
		default:
		}
	}
}

// Stop 关闭所有连接
func (h *QuizEventHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	closed := 0
	for key, set := range h.clients {
		for c := range set {
			close(c.send)
			closed++
		}
		delete(h.clients, key)
	}
	monitoring.QuizEventSubscribers.Set(0)
	logger.Log.Info("Quiz event hub stopped", zap.Int("closedConnections", closed))
}

// ServeWs 升级连接并订阅 key，initial 在订阅后立即发送
func (h *QuizEventHub) ServeWs(w http.ResponseWriter, r *http.Request, key string, initial *QuizEvent) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.String("session", key), zap.Error(err))
		return
	}
	c := &eventClient{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		key:     key,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	if initial != nil {
		if payload, err := json.Marshal(initial); err == nil {
			c.send <- payload
		}
	}
	h.add(c)

	go c.writePump()
	go c.readPump()
}
