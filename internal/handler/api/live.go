package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"MandiPulse/internal/domain/models"
	applogger "MandiPulse/pkg/logger"
)

const (
	liveWriteWait  = 10 * time.Second
	liveSendBuffer = 16
)

// LiveHub pushes refreshed price observations to websocket subscribers.
// It implements the refresh Publisher, so wiring it into the cache streams
// every successful refresh to connected clients. A subscriber names a
// commodity at connect time and only sees matching batches. Slow clients
// are dropped rather than allowed to stall the hub.
type LiveHub struct {
	mu       sync.RWMutex
	clients  map[*liveClient]struct{}
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

type liveClient struct {
	conn      *websocket.Conn
	commodity string // normalized, empty matches everything
	send      chan []models.PriceObservation
}

func NewLiveHub(l *applogger.Logger) *LiveHub {
	return &LiveHub{
		clients: make(map[*liveClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		l: l,
	}
}

// Serve upgrades the connection and streams refresh batches until the client
// goes away.
func (h *LiveHub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &liveClient{
		conn:      conn,
		commodity: strings.ToLower(strings.TrimSpace(c.QueryParam("commodity"))),
		send:      make(chan []models.PriceObservation, liveSendBuffer),
	}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.l.Info("live subscriber connected",
		applogger.String("commodity", client.commodity),
		applogger.Int("subscribers", n),
	)

	go h.writeLoop(client)
	h.readLoop(client)
	return nil
}

// PublishBatch fans a refresh batch out to subscribers. Never blocks: a
// client with a full buffer is disconnected.
func (h *LiveHub) PublishBatch(_ context.Context, records []models.PriceObservation) error {
	if len(records) == 0 {
		return nil
	}
	key := records[0].CommodityKey()

	h.mu.RLock()
	stalled := make([]*liveClient, 0)
	for c := range h.clients {
		if c.commodity != "" && c.commodity != key {
			continue
		}
		select {
		case c.send <- records:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.drop(c)
	}
	return nil
}

// Close disconnects every subscriber.
func (h *LiveHub) Close() error {
	h.mu.Lock()
	clients := make([]*liveClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*liveClient]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
		c.conn.Close()
	}
	return nil
}

func (h *LiveHub) writeLoop(c *liveClient) {
	for batch := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := c.conn.WriteJSON(batch); err != nil {
			h.drop(c)
			return
		}
	}
}

// readLoop only drains control frames; the stream is one-way.
func (h *LiveHub) readLoop(c *liveClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *LiveHub) drop(c *liveClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}
