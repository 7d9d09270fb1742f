package relay

import (
	"testing"
)

func TestBindReportsFirstConnection(t *testing.T) {
	r := NewRegistry()

	if first, _, _ := r.Bind("c1", "alice"); !first {
		t.Error("First bind should report first connection")
	}
	if first, _, _ := r.Bind("c2", "alice"); first {
		t.Error("Second connection should not report first")
	}
	if !r.IsOnline("alice") {
		t.Error("alice should be online")
	}
}

func TestBindIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Bind("c1", "alice")
	first, prevUser, prevLast := r.Bind("c1", "alice")
	if first {
		t.Error("Re-binding the same pair should not report first")
	}
	if prevUser != "" || prevLast {
		t.Errorf("Re-binding the same pair should displace nobody, got %q last=%v", prevUser, prevLast)
	}
	if got := len(r.Connections("alice")); got != 1 {
		t.Errorf("Expected 1 connection, got %d", got)
	}
}

func TestBindRebindsToDifferentUser(t *testing.T) {
	r := NewRegistry()

	r.Bind("c1", "alice")
	first, prevUser, prevLast := r.Bind("c1", "bob")
	if !first {
		t.Error("Rebind should report bob's first connection")
	}
	if prevUser != "alice" || !prevLast {
		t.Errorf("Rebind should report alice displaced and last, got %q last=%v", prevUser, prevLast)
	}
	if r.IsOnline("alice") {
		t.Error("alice should be offline after her only connection rebinds")
	}
	if uid, _ := r.UserOf("c1"); uid != "bob" {
		t.Errorf("Expected c1 bound to bob, got %q", uid)
	}
}

func TestBindRebindKeepsMultiDeviceUserOnline(t *testing.T) {
	r := NewRegistry()

	r.Bind("c1", "alice")
	r.Bind("c2", "alice")

	_, prevUser, prevLast := r.Bind("c1", "bob")
	if prevUser != "alice" || prevLast {
		t.Errorf("alice still has a connection, expected last=false, got %q last=%v", prevUser, prevLast)
	}
	if !r.IsOnline("alice") {
		t.Error("alice should stay online through c2")
	}
}

func TestUnbindReportsLastConnection(t *testing.T) {
	r := NewRegistry()

	r.Bind("c1", "alice")
	r.Bind("c2", "alice")

	userID, last, ok := r.Unbind("c1")
	if !ok || userID != "alice" {
		t.Fatalf("Expected unbind of alice, got %q ok=%v", userID, ok)
	}
	if last {
		t.Error("alice still has a connection, not last")
	}
	if !r.IsOnline("alice") {
		t.Error("alice should still be online")
	}

	_, last, ok = r.Unbind("c2")
	if !ok || !last {
		t.Errorf("Expected last disconnection, got last=%v ok=%v", last, ok)
	}
	if r.IsOnline("alice") {
		t.Error("alice should be offline")
	}
}

func TestUnbindUnknownConnection(t *testing.T) {
	r := NewRegistry()

	if _, _, ok := r.Unbind("ghost"); ok {
		t.Error("Unbinding an unbound connection should report ok=false")
	}
}

func TestOnlineMatchesConnectionCount(t *testing.T) {
	r := NewRegistry()

	if r.IsOnline("alice") {
		t.Error("Unknown user should be offline")
	}

	r.Bind("c1", "alice")
	r.Bind("c2", "alice")
	r.Bind("c3", "bob")

	if got := len(r.Connections("alice")); got != 2 {
		t.Errorf("Expected 2 connections for alice, got %d", got)
	}
	if got := len(r.OnlineUsers()); got != 2 {
		t.Errorf("Expected 2 online users, got %d", got)
	}
}

func TestOnlineUsersSnapshotNotLive(t *testing.T) {
	r := NewRegistry()
	r.Bind("c1", "alice")

	snapshot := r.OnlineUsers()
	r.Bind("c2", "bob")

	if len(snapshot) != 1 {
		t.Errorf("Snapshot should not observe later mutations, got %d users", len(snapshot))
	}
}

func TestConnectionsSnapshotNotLive(t *testing.T) {
	r := NewRegistry()
	r.Bind("c1", "alice")

	snapshot := r.Connections("alice")
	r.Unbind("c1")

	if len(snapshot) != 1 || snapshot[0] != "c1" {
		t.Errorf("Snapshot should keep c1, got %v", snapshot)
	}
}
