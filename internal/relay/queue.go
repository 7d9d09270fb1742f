package relay

import (
	"sync"
	"time"
)

const (
	DefaultQueueMax = 200
	DefaultQueueTTL = 15 * time.Minute
)

type queuedMessage struct {
	msg      Message
	queuedAt time.Time
}

// QueueStore holds the bounded, time-limited backlog of undelivered messages
// per recipient. Backlogs are created lazily on first enqueue and deleted as
// soon as they become empty. Entries expire lazily against the TTL; there is
// no background sweeper.
type QueueStore struct {
	mu       sync.Mutex
	backlogs map[string][]queuedMessage
	max      int
	ttl      time.Duration

	// now is swappable so TTL behavior can be tested without sleeping.
	now func() time.Time
}

func NewQueueStore(max int, ttl time.Duration) *QueueStore {
	if max <= 0 {
		max = DefaultQueueMax
	}
	if ttl <= 0 {
		ttl = DefaultQueueTTL
	}
	return &QueueStore{
		backlogs: make(map[string][]queuedMessage),
		max:      max,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Enqueue appends to the recipient's backlog. When the backlog grows past the
// cap the oldest entries are evicted until exactly max remain.
func (q *QueueStore) Enqueue(userID string, msg Message) {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog := append(q.backlogs[userID], queuedMessage{msg: msg, queuedAt: q.now()})
	if len(backlog) > q.max {
		backlog = backlog[len(backlog)-q.max:]
	}
	q.backlogs[userID] = backlog
}

// Prune drops entries whose age has reached the TTL and deletes the backlog
// entirely if nothing survives.
func (q *QueueStore) Prune(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked(userID)
}

func (q *QueueStore) pruneLocked(userID string) {
	backlog, ok := q.backlogs[userID]
	if !ok {
		return
	}
	now := q.now()
	valid := backlog[:0]
	for _, entry := range backlog {
		if now.Sub(entry.queuedAt) < q.ttl {
			valid = append(valid, entry)
		}
	}
	if len(valid) == 0 {
		delete(q.backlogs, userID)
		return
	}
	q.backlogs[userID] = valid
}

// Drain returns the pruned backlog in enqueue order without removing it.
// Removal is the caller's explicit step (Clear) so delivery can be verified
// before the backlog is committed gone.
func (q *QueueStore) Drain(userID string) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pruneLocked(userID)
	backlog, ok := q.backlogs[userID]
	if !ok {
		return nil
	}
	msgs := make([]Message, len(backlog))
	for i, entry := range backlog {
		msgs[i] = entry.msg
	}
	return msgs
}

// Clear removes the backlog entirely. Called only after confirmed delivery.
func (q *QueueStore) Clear(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.backlogs, userID)
}

// Len reports the current (unpruned) backlog length.
func (q *QueueStore) Len(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlogs[userID])
}

// SetClock overrides the time source. Test hook.
func (q *QueueStore) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}
