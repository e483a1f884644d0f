package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsPingEvery = 25 * time.Second
	wsWriteWait = 10 * time.Second
)

type WSClient struct {
	UserID string
	Conn   *websocket.Conn

	wmu sync.Mutex
}

func (c *WSClient) write(msgType int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.Conn.WriteMessage(msgType, data)
}

// RealtimeHub keeps the open websockets per user and forwards change-feed
// notifications to them.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[string]map[*WSClient]struct{}
	feed    *ChangeFeed
	log     *zap.Logger
}

func NewRealtimeHub(feed *ChangeFeed, log *zap.Logger) *RealtimeHub {
	return &RealtimeHub{
		clients: make(map[string]map[*WSClient]struct{}),
		feed:    feed,
		log:     log,
	}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// Connected reports the number of open sockets for userID.
func (h *RealtimeHub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Broadcast writes payload as JSON to every socket of userID.
func (h *RealtimeHub) Broadcast(userID string, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			h.log.Debug("ws write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// Serve registers c, subscribes it to the change feed and pumps notifications
// and pings until ctx is done or a write fails. c is unregistered on return.
func (h *RealtimeHub) Serve(ctx context.Context, c *WSClient) {
	h.Register(c)
	sub := h.feed.Subscribe(c.UserID)
	defer func() {
		h.feed.Unsubscribe(sub)
		h.Unregister(c)
	}()

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case kind, ok := <-sub.C:
			if !ok {
				return
			}
			msg, _ := json.Marshal(map[string]ChangeKind{"kind": kind})
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
