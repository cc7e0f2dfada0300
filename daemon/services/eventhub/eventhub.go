// Package eventhub wraps github.com/cskr/pubsub into a small, typed API
// scoped to collector-run events, so in-process consumers can react to
// fresh samples without polling the scheduler.
package eventhub

import (
	"time"

	"github.com/cskr/pubsub"
)

// defaultCapacity is the per-topic channel buffer pubsub.New allocates.
// A slow subscriber can fall behind by this many events before a publish
// blocks the scheduler tick that produced it.
const defaultCapacity = 32

// Update is published on a collector's topic every time it produces a
// fresh sample or fails to.
type Update struct {
	CollectorID string
	Timestamp   time.Time
	Err         error
}

// Hub is a thin typed wrapper over *pubsub.PubSub, exposing one topic per
// collector ID plus a catch-all "*" topic that receives every update.
type Hub struct {
	ps *pubsub.PubSub
}

// New constructs a Hub backed by a fresh pubsub.PubSub.
func New() *Hub {
	return &Hub{ps: pubsub.New(defaultCapacity)}
}

// PubSub returns the underlying *pubsub.PubSub for callers (such as
// domain.Context) that already carry that type.
func (h *Hub) PubSub() *pubsub.PubSub {
	return h.ps
}

// Publish broadcasts an Update on the collector's own topic and on "*".
func (h *Hub) Publish(u Update) {
	h.ps.Pub(u, u.CollectorID, "*")
}

// Subscribe returns a channel of Updates for one or more collector IDs.
// Passing no IDs subscribes to every collector via the "*" topic.
func (h *Hub) Subscribe(collectorIDs ...string) chan interface{} {
	if len(collectorIDs) == 0 {
		return h.ps.Sub("*")
	}
	return h.ps.Sub(collectorIDs...)
}

// Unsubscribe detaches a channel returned by Subscribe from its topics.
func (h *Hub) Unsubscribe(ch chan interface{}) {
	h.ps.Unsub(ch)
}

// Shutdown closes every subscriber channel and stops the underlying
// pubsub dispatch loop.
func (h *Hub) Shutdown() {
	h.ps.Shutdown()
}
