package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"govchat-server/internal/service"
)

// Hub 是 WebSocket 连接的中心管理器
// 负责管理所有客户端连接，并把服务层事件推送给对应用户
type Hub struct {
	// 客户端映射：userID -> 连接集合
	clients map[int64]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// 保护 clients 以及 send 通道的关闭
	mu sync.RWMutex

	log *zap.Logger
}

var _ service.ChatNotifier = (*Hub)(nil)

// NewHub 创建 Hub 实例
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// Run 启动 Hub 的主循环，直到 ctx 结束
// 退出时关闭所有客户端连接
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			close(h.done)
			return
		}
	}
}

// Register 注册客户端；Hub 已停止时返回 false
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount 返回用户当前的连接数
func (h *Hub) ClientCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// NotifySessionCreated 推送新会话事件
func (h *Hub) NotifySessionCreated(userID int64, session *service.SessionResponse) {
	h.sendToUser(userID, NewMessage(TypeSessionCreated, session))
}

// NotifyMessageCreated 推送新消息事件
func (h *Hub) NotifyMessageCreated(userID int64, messages ...service.MessageResponse) {
	if len(messages) == 0 {
		return
	}
	h.sendToUser(userID, NewMessage(TypeMessageCreated, &MessageCreatedPayload{
		SessionID: messages[0].SessionID,
		Messages:  messages,
	}))
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.userID] = set
	}
	set[client] = struct{}{}
	h.log.Debug("client registered", zap.Int64("user_id", client.userID), zap.Int("connections", len(set)))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	h.log.Debug("client unregistered", zap.Int64("user_id", client.userID))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.clients {
		for client := range set {
			close(client.send)
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) sendToUser(userID int64, msg *Message) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for client := range h.clients[userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.SendMessage(msg)
	}
}

// deliver 把数据放入客户端的发送缓冲区
// 持有读锁，保证 send 通道不会在发送期间被关闭
func (h *Hub) deliver(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client.userID][client]; !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		h.log.Warn("client send buffer full, dropping message", zap.Int64("user_id", client.userID))
	}
}
