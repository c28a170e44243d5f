package kds

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-orders/utils"
)

const (
	writeWait        = 10 * time.Second
	defaultQueueSize = 64
)

var ErrHubClosed = errors.New("kds: hub is closed")

// Conn is the part of a websocket connection the hub writes to.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Client is one connected actor (POS terminal, kitchen display, guest device).
type Client struct {
	hub       *Hub
	tenantID  string
	role      string
	conn      Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *Client) TenantID() string { return c.tenantID }
func (c *Client) Role() string     { return c.role }

// Hub fans events out to every client joined to a tenant room. Messages for a
// room are queued per client in publish order, and each client is drained by
// its own writer so a stalled connection never blocks a publisher.
type Hub struct {
	mu        sync.Mutex
	rooms     map[string]map[*Client]struct{}
	queueSize int
	closed    bool
}

func NewHub() *Hub {
	return &Hub{
		rooms:     make(map[string]map[*Client]struct{}),
		queueSize: defaultQueueSize,
	}
}

// Join registers conn in the tenant's room and starts its writer.
func (h *Hub) Join(tenantID, role string, conn Conn) (*Client, error) {
	c := &Client{
		hub:      h,
		tenantID: tenantID,
		role:     role,
		conn:     conn,
		send:     make(chan []byte, h.queueSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	room, ok := h.rooms[tenantID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[tenantID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()

	utils.InfoLogger.WithFields(logrus.Fields{"tenant": tenantID, "role": role}).Info("kds client joined")
	return c, nil
}

// Leave removes the client from its room and closes its connection once the
// queued messages are flushed. Calling Leave more than once is safe.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	c.shutdown()
}

// Publish queues msg for every client in the tenant's room. A client whose
// queue is full is dropped; it will resync from the store when it reconnects.
func (h *Hub) Publish(ctx context.Context, tenantID string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	var slow []*Client
	for c := range h.rooms[tenantID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	for _, c := range slow {
		utils.ErrorLogger.WithFields(logrus.Fields{"tenant": tenantID, "role": c.role}).
			Warn("kds client queue full, disconnecting")
		c.shutdown()
	}
	return nil
}

// RoomSize returns the number of clients connected for a tenant.
func (h *Hub) RoomSize(tenantID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[tenantID])
}

// Close disconnects every client and rejects further joins and publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Client
	for _, room := range h.rooms {
		for c := range room {
			all = append(all, c)
		}
	}
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.shutdown()
	}
}

func (h *Hub) removeLocked(c *Client) {
	room, ok := h.rooms[c.tenantID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.tenantID)
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *Client) writePump() {
	defer c.conn.Close()

	failed := false
	for data := range c.send {
		if failed {
			continue
		}
		if dl, ok := c.conn.(writeDeadliner); ok {
			_ = dl.SetWriteDeadline(time.Now().Add(writeWait))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"tenant": c.tenantID, "role": c.role}).
				Warnf("kds write failed: %v", err)
			failed = true
			c.hub.Leave(c)
		}
	}
}
