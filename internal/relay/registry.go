package relay

import (
	"sync"
)

// Registry tracks which live connections currently represent each user.
// The forward map (user -> connection set) and the reverse map
// (connection -> user) are mutated together and stay mutually consistent;
// a user is online exactly while their set is non-empty, and empty sets are
// deleted rather than kept around.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]struct{}
	byConn map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]struct{}),
		byConn: make(map[string]string),
	}
}

// Bind associates a connection with a user and reports whether this was the
// user's first active connection. Re-binding the same pair is idempotent.
// A connection already bound to a different user is unbound first so the two
// maps cannot drift apart; the displaced user and whether they just lost
// their last connection are reported so the caller can emit the offline edge.
func (r *Registry) Bind(connID, userID string) (first bool, prevUser string, prevLast bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[connID]; ok && prev != userID {
		prevUser = prev
		prevLast = r.removeLocked(connID, prev)
	}

	r.byConn[connID] = userID
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	if _, ok := set[connID]; ok {
		return false, prevUser, prevLast
	}
	set[connID] = struct{}{}
	return len(set) == 1, prevUser, prevLast
}

// Unbind removes a connection using the reverse map (disconnect events carry
// no user id) and reports the bound user and whether this was their last
// active connection. A connection that was never bound returns ok=false.
func (r *Registry) Unbind(connID string) (userID string, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok = r.byConn[connID]
	if !ok {
		return "", false, false
	}
	last = r.removeLocked(connID, userID)
	return userID, last, true
}

func (r *Registry) removeLocked(connID, userID string) (last bool) {
	delete(r.byConn, connID)
	set, ok := r.byUser[userID]
	if !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.byUser, userID)
		return true
	}
	return false
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// UserOf returns the user bound to a connection, if any.
func (r *Registry) UserOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byConn[connID]
	return userID, ok
}

// Connections returns a snapshot of the user's broadcast group. The slice is
// a copy; later registry mutations are not observable through it.
func (r *Registry) Connections(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	if len(set) == 0 {
		return nil
	}
	conns := make([]string, 0, len(set))
	for connID := range set {
		conns = append(conns, connID)
	}
	return conns
}

// OnlineUsers returns a snapshot of all currently online users.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return users
}
