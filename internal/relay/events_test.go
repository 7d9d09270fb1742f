package relay

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseInboundIdentify(t *testing.T) {
	ev, err := ParseInbound("identify", json.RawMessage(`{"userId":"alice"}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	identify, ok := ev.(*Identify)
	if !ok {
		t.Fatalf("Expected *Identify, got %T", ev)
	}
	if identify.UserID != "alice" {
		t.Errorf("Expected userId alice, got %q", identify.UserID)
	}
}

func TestParseInboundSend(t *testing.T) {
	raw := json.RawMessage(`{"to":"alice","text":"hi","ts":1700000000000,"clientId":"m-1","fromUser":{"name":"Bob"}}`)
	ev, err := ParseInbound("send", raw)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	send, ok := ev.(*Send)
	if !ok {
		t.Fatalf("Expected *Send, got %T", ev)
	}
	if send.To != "alice" || send.Text != "hi" || send.Timestamp != 1700000000000 || send.ClientID != "m-1" {
		t.Errorf("Unexpected decode: %+v", send)
	}
	if len(send.SenderMeta) == 0 {
		t.Error("fromUser should be carried through opaquely")
	}
}

func TestParseInboundEmptyPayload(t *testing.T) {
	for _, event := range []string{"identify", "leave", "who", "send"} {
		if _, err := ParseInbound(event, nil); err != nil {
			t.Errorf("Empty payload for %s should decode to zero value, got %v", event, err)
		}
	}
}

func TestParseInboundUnknownEvent(t *testing.T) {
	_, err := ParseInbound("dm:legacy", json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Expected ErrUnknownEvent, got %v", err)
	}
}

func TestParseInboundMalformedPayload(t *testing.T) {
	if _, err := ParseInbound("send", json.RawMessage(`{"to":42}`)); err == nil {
		t.Error("Malformed payload should surface a decode error")
	}
}
