package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"estanteria_go/middleware"
	"estanteria_go/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// SalesChannel 多实例之间同步售出通知的 Redis 频道
	SalesChannel = "estanteria:sales"
	// EventBookSold 书籍售出事件
	EventBookSold = "book_sold"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Message 推送给浏览器的消息
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// SaleEvent 售出事件内容
type SaleEvent struct {
	URL       string `json:"url"`
	Nombre    string `json:"nombre"`
	Precio    string `json:"precio"`
	Comprador string `json:"comprador"`
}

// Delivery 发给某个用户的消息
type Delivery struct {
	UserID  uint     `json:"user_id"`
	Message *Message `json:"message"`
}

// Client 一个浏览器连接
type Client struct {
	userID uint
	conn   *websocket.Conn
	send   chan *Message
	once   sync.Once
}

// Hub 管理在线连接并向卖家推送售出通知
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*Client]struct{} // userID -> 连接
	deliver  chan *Delivery
	rdb      *redis.Client
	pubsub   *redis.PubSub
	log      *zap.Logger
	upgrader websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewHub 创建通知中心，rdb 为空时只在本实例内推送
func NewHub(rdb *redis.Client, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[uint]map[*Client]struct{}),
		deliver: make(chan *Delivery, 1000),
		rdb:     rdb,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
	}
}

// Start 启动投递循环和 Redis 订阅
func (h *Hub) Start(ctx context.Context) error {
	if h.rdb != nil {
		pubsub := h.rdb.Subscribe(ctx, SalesChannel)
		// 等待订阅确认，之后发布的消息不会丢失
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			return err
		}
		h.pubsub = pubsub
		h.wg.Add(1)
		go h.subscribeLoop(pubsub.Channel())
	}

	h.wg.Add(1)
	go h.deliverLoop()
	h.log.Info("websocket hub started", zap.Bool("redis", h.rdb != nil))
	return nil
}

// Close 停止后台循环并断开所有连接
func (h *Hub) Close() {
	select {
	case <-h.done:
		return
	default:
	}
	close(h.done)
	if h.pubsub != nil {
		h.pubsub.Close()
	}
	h.wg.Wait()

	h.mu.Lock()
	for _, conns := range h.clients {
		for c := range conns {
			c.conn.Close()
		}
	}
	h.clients = make(map[uint]map[*Client]struct{})
	h.mu.Unlock()
}

// Online 用户当前的连接数
func (h *Hub) Online(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// HandleConnection 升级为 WebSocket 连接，用户来自认证中间件
func (h *Hub) HandleConnection(c *gin.Context) {
	user, ok := middleware.CurrentUser(c.Request.Context())
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}

	client := &Client{
		userID: user.ID,
		conn:   conn,
		send:   make(chan *Message, 64),
	}
	h.register(client)
	h.log.Debug("websocket connected", zap.Uint("user_id", user.ID))

	go h.writePump(client)
	go h.readPump(client)
}

// BookSold 通知卖家书籍已售出
func (h *Hub) BookSold(ctx context.Context, book *models.Book, buyer *models.User) {
	d := &Delivery{
		UserID: book.UsuarioID,
		Message: &Message{
			Type: EventBookSold,
			Data: SaleEvent{
				URL:       book.URL,
				Nombre:    book.Nombre,
				Precio:    book.Precio,
				Comprador: buyer.Username,
			},
			Timestamp: time.Now().Unix(),
		},
	}

	if h.rdb != nil {
		data, err := json.Marshal(d)
		if err == nil {
			err = h.rdb.Publish(ctx, SalesChannel, data).Err()
		}
		if err == nil {
			return
		}
		h.log.Warn("publish sale event failed, delivering locally", zap.Error(err))
	}
	h.enqueue(d)
}

func (h *Hub) enqueue(d *Delivery) {
	select {
	case h.deliver <- d:
	default:
		h.log.Warn("delivery queue is full, dropping event", zap.Uint("user_id", d.UserID))
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if conns, ok := h.clients[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	c.once.Do(func() { close(c.send) })
}

// deliverLoop 把消息投递到用户的所有连接
func (h *Hub) deliverLoop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case d := <-h.deliver:
			h.mu.RLock()
			for c := range h.clients[d.UserID] {
				select {
				case c.send <- d.Message:
				default:
					// 发送队列已满，断开连接
					h.log.Warn("client send queue is full, closing", zap.Uint("user_id", c.userID))
					c.conn.Close()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// subscribeLoop 接收其他实例发布的事件
func (h *Hub) subscribeLoop(ch <-chan *redis.Message) {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var d Delivery
			if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil || d.Message == nil {
				h.log.Warn("invalid sale event", zap.String("payload", msg.Payload))
				continue
			}
			h.enqueue(&d)
		}
	}
}

// readPump 只处理 ping 和关闭，连接断开时注销
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read error", zap.Uint("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var msg Message
		if json.Unmarshal(data, &msg) == nil && msg.Type == "ping" {
			select {
			case c.send <- &Message{Type: "pong", Timestamp: time.Now().Unix()}:
			default:
			}
		}
	}
}

// writePump 写出消息并定时发送心跳
func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				h.log.Debug("websocket write error", zap.Uint("user_id", c.userID), zap.Error(err))
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
