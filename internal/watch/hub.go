// Package watch broadcasts ledger change notifications to interested
// consumers. View assembly and caches subscribe to recompute after any
// write; the hub never blocks a publisher on a slow subscriber.
package watch

import "sync"

// Entity names the table a change touched.
type Entity string

const (
	EntityTransaction Entity = "transaction"
	EntityCategory    Entity = "category"
	EntityBudget      Entity = "budget"
)

// Action names the write that happened.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Change describes a single completed write.
type Change struct {
	Entity Entity
	Action Action
	ID     int64
}

// Hub fans out changes to subscribers. Each subscriber gets its own
// buffered channel; when the buffer is full the change is dropped for that
// subscriber, which is acceptable because consumers recompute full state
// from storage rather than applying deltas.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Change)}
}

const subscriberBuffer = 16

// Subscribe registers a consumer. The returned cancel func must be called
// to release the channel; after cancel the channel is closed.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan Change, subscriberBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the change to every subscriber without blocking.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// SubscriberCount reports current subscribers, for logging.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
