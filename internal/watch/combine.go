package watch

import "sync"

// Source is anything that can be observed for change notifications. The Hub
// satisfies it; wrappers around other feeds can too.
type Source interface {
	Subscribe() (<-chan Change, func())
}

// Combined holds the latest result of a compute function and re-runs it
// whenever any subscribed source emits. There is no debouncing: each emit
// triggers one full recomputation, which is fine at ledger data volumes.
type Combined[T any] struct {
	compute func() (T, error)

	mu     sync.RWMutex
	latest T
	err    error

	notify  chan struct{}
	cancels []func()
	done    chan struct{}
}

// NewCombined computes an initial snapshot, then subscribes to every source
// and recomputes on any of their emissions. Close releases the subscriptions.
func NewCombined[T any](compute func() (T, error), sources ...Source) *Combined[T] {
	c := &Combined[T]{
		compute: compute,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	c.recompute()

	for _, src := range sources {
		ch, cancel := src.Subscribe()
		c.cancels = append(c.cancels, cancel)
		go c.forward(ch)
	}
	go c.loop()
	return c
}

// Latest returns the most recently computed snapshot and the error, if any,
// from that computation. A failed recompute keeps the previous snapshot.
func (c *Combined[T]) Latest() (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.err
}

// Close unsubscribes from all sources and stops the recompute loop.
func (c *Combined[T]) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
	close(c.done)
}

func (c *Combined[T]) forward(ch <-chan Change) {
	for range ch {
		// Coalesce into a single pending notification.
		select {
		case c.notify <- struct{}{}:
		default:
		}
	}
}

func (c *Combined[T]) loop() {
	for {
		select {
		case <-c.notify:
			c.recompute()
		case <-c.done:
			return
		}
	}
}

func (c *Combined[T]) recompute() {
	value, err := c.compute()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	if err == nil {
		c.latest = value
	}
}
