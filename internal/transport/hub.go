package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"relay-service/internal/relay"
)

var ErrClientDisconnected = fmt.Errorf("client disconnected")

// Envelope is the wire frame in both directions: an event name plus its
// payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type inboundEvent struct {
	connID string
	ev     relay.Inbound
}

// Hub owns the live connections and runs the single inbound event loop:
// registrations, disconnects and client events are processed one at a time
// and handed to the delivery coordinator. It is also the coordinator's
// outbound Gateway.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent

	coordinator *relay.Coordinator

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		conns:      make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent, 64),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Attach wires the coordinator after construction; the hub is built first
// because the coordinator needs it as Gateway.
func (h *Hub) Attach(coordinator *relay.Coordinator) {
	h.coordinator = coordinator
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case ev := <-h.inbound:
			h.coordinator.Dispatch(ev.connID, ev.ev)

		case <-h.ctx.Done():
			slog.Info("Transport hub shutting down")
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.conns[client.id] = client
	h.mu.Unlock()

	slog.Info("Client registered", "connID", client.id)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, known := h.conns[client.id]
	delete(h.conns, client.id)
	h.mu.Unlock()

	if !known {
		return
	}
	client.closeSendChannel()
	h.coordinator.Disconnect(client.id)
	slog.Info("Client unregistered", "connID", client.id)
}

// ToConn emits one event to a single connection. Unknown connection ids are
// ignored; the disconnect path may already have removed them.
func (h *Hub) ToConn(connID, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		slog.Error("Failed to encode outbound event", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	client := h.conns[connID]
	h.mu.RUnlock()

	if client == nil {
		return
	}
	if err := client.Send(data); err != nil {
		slog.Debug("Dropped outbound event", "connID", connID, "event", event, "error", err)
	}
}

// ToConns emits one event to a group of connections.
func (h *Hub) ToConns(connIDs []string, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		slog.Error("Failed to encode outbound event", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(connIDs))
	for _, connID := range connIDs {
		if client := h.conns[connID]; client != nil {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.Send(data); err != nil {
			slog.Debug("Dropped outbound event", "connID", client.id, "event", event, "error", err)
		}
	}
}

// Broadcast emits one event to every live connection.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		slog.Error("Failed to encode outbound event", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.conns))
	for _, client := range h.conns {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.Send(data); err != nil {
			slog.Debug("Dropped broadcast event", "connID", client.id, "event", event, "error", err)
		}
	}
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
