package relay

import (
	"log/slog"
	"sync"
	"time"
)

const DefaultFlushDelay = 1000 * time.Millisecond

// Gateway is the outbound half of the transport boundary. The websocket hub
// implements it; the coordinator never sees sockets, only connection ids.
type Gateway interface {
	// ToConn emits one event to a single connection.
	ToConn(connID, event string, payload any)

	// ToConns emits one event to a group of connections.
	ToConns(connIDs []string, event string, payload any)

	// Broadcast emits one event to every live connection.
	Broadcast(event string, payload any)
}

// Coordinator binds inbound transport events to the registry and queue,
// decides immediate-delivery vs. enqueue, and manages the delayed backlog
// flush on reconnect. All event handling and the deferred flush callback are
// serialized behind one mutex, which stands in for the single event loop of
// the scheduling model: no two handlers mutate shared state concurrently.
type Coordinator struct {
	mu       sync.Mutex
	registry *Registry
	queue    *QueueStore
	emitter  *Emitter
	gateway  Gateway

	flushDelay time.Duration
	now        func() time.Time
}

func NewCoordinator(registry *Registry, queue *QueueStore, emitter *Emitter, gateway Gateway, flushDelay time.Duration) *Coordinator {
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Coordinator{
		registry:   registry,
		queue:      queue,
		emitter:    emitter,
		gateway:    gateway,
		flushDelay: flushDelay,
		now:        time.Now,
	}
}

func (c *Coordinator) Registry() *Registry { return c.registry }

// Dispatch routes one inbound event from a connection. The type switch is
// exhaustive over the Inbound variant.
func (c *Coordinator) Dispatch(connID string, ev Inbound) {
	switch ev := ev.(type) {
	case *Identify:
		c.identify(connID, ev.UserID)
	case *Leave:
		c.leave(connID, ev.UserID)
	case *Who:
		c.who(connID)
	case *Send:
		c.send(connID, ev)
	default:
		slog.Error("Unhandled inbound event kind", "connID", connID)
	}
}

// Disconnect is the transport-driven close path. A connection that never
// identified produces no side effect.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unbind(connID)
}

func (c *Coordinator) identify(connID, userID string) {
	// Empty user id is silently ignored, protocol policy rather than a fault.
	if userID == "" {
		slog.Debug("Identify with empty userId ignored", "connID", connID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	first, prevUser, prevLast := c.registry.Bind(connID, userID)
	if prevLast {
		// The connection re-identified as someone else and was the displaced
		// user's last one; their offline edge must still be observed.
		c.emitter.Offline(prevUser)
	}
	if first {
		c.emitter.Online(userID)
	}
	slog.Info("Connection identified", "connID", connID, "userID", userID)

	c.scheduleFlush(userID)
	c.gateway.ToConn(connID, EventPresenceSnapshot, Snapshot{Online: c.registry.OnlineUsers()})
}

func (c *Coordinator) leave(connID, _ string) {
	// The payload may carry a userId, but the reverse map is authoritative:
	// honoring a mismatched payload id would let the two maps drift apart.
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unbind(connID)
}

func (c *Coordinator) unbind(connID string) {
	userID, last, ok := c.registry.Unbind(connID)
	if !ok {
		return
	}
	slog.Info("Connection unbound", "connID", connID, "userID", userID)
	if last {
		c.emitter.Offline(userID)
	}
}

func (c *Coordinator) who(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gateway.ToConn(connID, EventPresenceSnapshot, Snapshot{Online: c.registry.OnlineUsers()})
}

func (c *Coordinator) send(connID string, ev *Send) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, ok := c.registry.UserOf(connID)
	if !ok {
		// Known rough edge: no ack, no error back to the sender.
		slog.Warn("Send from unidentified connection dropped", "connID", connID)
		return
	}

	ts := ev.Timestamp
	if ts == 0 {
		ts = c.now().UnixMilli()
	}
	msg := Message{
		From:       from,
		To:         ev.To,
		Text:       ev.Text,
		Timestamp:  ts,
		ClientID:   ev.ClientID,
		SenderMeta: ev.SenderMeta,
	}

	// The sender is acknowledged regardless of recipient reachability.
	c.gateway.ToConn(connID, EventMessageAck, Ack{ClientID: msg.ClientID, Timestamp: msg.Timestamp})

	if group := c.registry.Connections(msg.To); len(group) > 0 {
		c.gateway.ToConns(group, EventMessageReceive, msg)
		slog.Info("Message delivered", "from", from, "to", msg.To, "connections", len(group))
		return
	}

	c.queue.Enqueue(msg.To, msg)
	slog.Info("Message queued for offline user", "from", from, "to", msg.To, "backlog", c.queue.Len(msg.To))
}

// scheduleFlush arms the reconnect backlog flush. Delivery is deferred by the
// settling delay so the client finishes rebinding its listeners first; the
// callback re-acquires the coordinator lock and re-checks reachability at
// fire time. Caller must hold c.mu.
func (c *Coordinator) scheduleFlush(userID string) {
	c.queue.Prune(userID)
	backlog := c.queue.Len(userID)
	if backlog == 0 {
		return
	}
	slog.Info("Scheduling backlog flush", "userID", userID, "backlog", backlog, "delay", c.flushDelay)

	time.AfterFunc(c.flushDelay, func() {
		c.flush(userID)
	})
}

// flush delivers the backlog if the user is still reachable at fire time.
// The re-check is a correctness requirement, not an optimization: the user
// may have disconnected during the settling window, and a pending flush is
// never cancelled on disconnect. An unreachable user keeps their backlog for
// the next identify, subject to TTL pruning in the interim.
func (c *Coordinator) flush(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	group := c.registry.Connections(userID)
	if len(group) == 0 {
		slog.Warn("User disconnected before backlog flush", "userID", userID)
		return
	}

	msgs := c.queue.Drain(userID)
	if len(msgs) == 0 {
		return
	}
	for _, msg := range msgs {
		c.gateway.ToConns(group, EventMessageReceive, msg)
	}
	c.queue.Clear(userID)
	slog.Info("Backlog flushed", "userID", userID, "delivered", len(msgs))
}
