package relay

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(i int) Message {
	return Message{
		From:      "bob",
		To:        "alice",
		Text:      fmt.Sprintf("message %d", i),
		Timestamp: int64(i),
	}
}

func TestEnqueueEvictsOldestPastCap(t *testing.T) {
	q := NewQueueStore(200, DefaultQueueTTL)

	for i := 1; i <= 201; i++ {
		q.Enqueue("alice", testMessage(i))
	}

	msgs := q.Drain("alice")
	require.Len(t, msgs, 200)
	assert.Equal(t, "message 2", msgs[0].Text, "oldest message should be evicted")
	assert.Equal(t, "message 201", msgs[199].Text)
}

func TestEnqueueKeepsInsertionOrder(t *testing.T) {
	q := NewQueueStore(10, DefaultQueueTTL)

	for i := 1; i <= 3; i++ {
		q.Enqueue("alice", testMessage(i))
	}

	msgs := q.Drain("alice")
	require.Len(t, msgs, 3)
	for i, msg := range msgs {
		assert.Equal(t, fmt.Sprintf("message %d", i+1), msg.Text)
	}
}

func TestTTLPruning(t *testing.T) {
	q := NewQueueStore(200, 15*time.Minute)

	base := time.Now()
	current := base
	q.SetClock(func() time.Time { return current })

	q.Enqueue("alice", testMessage(1))

	current = base.Add(14 * time.Minute)
	require.Len(t, q.Drain("alice"), 1, "message should survive at t+14m")

	current = base.Add(16 * time.Minute)
	assert.Empty(t, q.Drain("alice"), "message should expire at t+16m")
	assert.Zero(t, q.Len("alice"), "empty backlog should be deleted")
}

func TestPruneKeepsFreshEntries(t *testing.T) {
	q := NewQueueStore(200, 15*time.Minute)

	base := time.Now()
	current := base
	q.SetClock(func() time.Time { return current })

	q.Enqueue("alice", testMessage(1))
	current = base.Add(10 * time.Minute)
	q.Enqueue("alice", testMessage(2))

	current = base.Add(16 * time.Minute)
	q.Prune("alice")

	msgs := q.Drain("alice")
	require.Len(t, msgs, 1)
	assert.Equal(t, "message 2", msgs[0].Text)
}

func TestDrainDoesNotRemove(t *testing.T) {
	q := NewQueueStore(200, DefaultQueueTTL)
	q.Enqueue("alice", testMessage(1))

	require.Len(t, q.Drain("alice"), 1)
	assert.Len(t, q.Drain("alice"), 1, "drain must not consume the backlog")
}

func TestClearRemovesBacklog(t *testing.T) {
	q := NewQueueStore(200, DefaultQueueTTL)
	q.Enqueue("alice", testMessage(1))
	q.Enqueue("bob", testMessage(2))

	q.Clear("alice")

	assert.Empty(t, q.Drain("alice"))
	assert.Len(t, q.Drain("bob"), 1, "clearing one user must not touch another")
}
