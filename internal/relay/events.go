package relay

import (
	"encoding/json"
	"fmt"
)

// Outbound event names (server -> client)
const (
	EventUserOnline       = "user:online"
	EventUserOffline      = "user:offline"
	EventPresenceSnapshot = "presence:snapshot"
	EventMessageReceive   = "message:receive"
	EventMessageAck       = "message:ack"
)

// Inbound event names (client -> server)
const (
	EventIdentify = "identify"
	EventLeave    = "leave"
	EventWho      = "who"
	EventSend     = "send"
)

var ErrUnknownEvent = fmt.Errorf("unknown event")

// Inbound is the tagged variant of client events. Each concrete kind is a
// struct so dispatch happens with an exhaustive type switch instead of a
// string-keyed handler table.
type Inbound interface {
	inbound()
}

type Identify struct {
	UserID string `json:"userId"`
}

type Leave struct {
	// UserID is accepted for wire compatibility but advisory: the leaving
	// connection's reverse binding is authoritative, so a mismatched or
	// absent value changes nothing.
	UserID string `json:"userId,omitempty"`
}

type Who struct{}

type Send struct {
	To         string          `json:"to"`
	Text       string          `json:"text"`
	Timestamp  int64           `json:"ts,omitempty"`
	ClientID   string          `json:"clientId,omitempty"`
	SenderMeta json.RawMessage `json:"fromUser,omitempty"`
}

func (Identify) inbound() {}
func (Leave) inbound()    {}
func (Who) inbound()      {}
func (Send) inbound()     {}

// ParseInbound decodes an event name plus raw payload into its variant.
// Unknown event names return ErrUnknownEvent so the transport can log and
// drop them without touching relay state.
func ParseInbound(event string, data json.RawMessage) (Inbound, error) {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	switch event {
	case EventIdentify:
		var ev Identify
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode identify: %w", err)
		}
		return &ev, nil
	case EventLeave:
		var ev Leave
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode leave: %w", err)
		}
		return &ev, nil
	case EventWho:
		return &Who{}, nil
	case EventSend:
		var ev Send
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode send: %w", err)
		}
		return &ev, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
}

// Message is the canonical record delivered to the recipient's connections.
// Field names match the wire protocol; queue bookkeeping never leaves the
// process.
type Message struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	Text       string          `json:"text"`
	Timestamp  int64           `json:"ts"`
	ClientID   string          `json:"clientId,omitempty"`
	SenderMeta json.RawMessage `json:"fromUser,omitempty"`
}

// Ack confirms a send to the sender regardless of recipient reachability.
type Ack struct {
	ClientID  string `json:"clientId,omitempty"`
	Timestamp int64  `json:"ts"`
}

type Presence struct {
	UserID string `json:"userId"`
}

type Snapshot struct {
	Online []string `json:"online"`
}
