package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/smart-portfolio/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// ScoreEvent is one message pushed to websocket subscribers
type ScoreEvent struct {
	Type      string      `json:"type"` // connected, sell_candidates, ...
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan ScoreEvent
}

// Hub fans score events out to connected websocket clients
// ⭐ SSOT: 실시간 점수 푸시는 이 구조체에서만
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	upgrader    websocket.Upgrader
	now         func() time.Time
	logger      *logger.Logger
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		now:    time.Now,
		logger: log,
	}
}

// Len returns the number of connected subscribers
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast queues an event for every subscriber. Slow subscribers drop it.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	event := ScoreEvent{Type: eventType, Timestamp: h.now(), Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- event:
		default:
			h.logger.WithField("event_type", eventType).Warn("Subscriber buffer full, event dropped")
		}
	}
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.WithField("subscribers", count).Debug("Websocket subscriber added")
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.send)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.WithField("subscribers", count).Debug("Websocket subscriber removed")
}

// ServeWS upgrades the connection and streams events until the client leaves
// GET /ws/scores
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn, send: make(chan ScoreEvent, sendBuffer)}
	sub.send <- ScoreEvent{Type: "connected", Timestamp: h.now()}
	h.add(sub)

	go h.writePump(sub)
	h.readPump(sub)
}

// readPump only watches for close/pong; clients never send data
func (h *Hub) readPump(sub *subscriber) {
	defer func() {
		h.remove(sub)
		sub.conn.Close()
	}()

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
