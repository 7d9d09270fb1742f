package relay

import (
	"context"
	"log/slog"
	"time"
)

// Mirror receives presence transitions for out-of-process observers, e.g. the
// Redis-backed mirror in internal/presence. It never influences delivery
// decisions; the in-memory registry stays authoritative.
type Mirror interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// Emitter turns the edge signals reported by Registry.Bind/Unbind into
// user:online / user:offline broadcasts. It is a synchronous derivation
// invoked by the coordinator, not a goroutine of its own; intermediate
// multi-device changes never reach it.
type Emitter struct {
	gateway Gateway
	mirror  Mirror
}

func NewEmitter(gateway Gateway, mirror Mirror) *Emitter {
	return &Emitter{gateway: gateway, mirror: mirror}
}

func (e *Emitter) Online(userID string) {
	e.gateway.Broadcast(EventUserOnline, Presence{UserID: userID})
	slog.Info("User online", "userID", userID)
	e.mirrorCall(userID, true)
}

func (e *Emitter) Offline(userID string) {
	e.gateway.Broadcast(EventUserOffline, Presence{UserID: userID})
	slog.Info("User offline", "userID", userID)
	e.mirrorCall(userID, false)
}

// mirrorCall runs off the caller's goroutine: the mirror is advisory only,
// and a slow Redis round-trip must not stall event handling under the
// coordinator's lock.
func (e *Emitter) mirrorCall(userID string, online bool) {
	if e.mirror == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		var err error
		if online {
			err = e.mirror.SetOnline(ctx, userID)
		} else {
			err = e.mirror.SetOffline(ctx, userID)
		}
		if err != nil {
			slog.Error("Failed to mirror presence transition", "userID", userID, "online", online, "error", err)
		}
	}()
}
