package syncer

import (
	"sync"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

// Subscriber receives a progress snapshot every time a channel's state
// changes. Callbacks run outside the controller lock, in the order the
// changes happened.
type Subscriber func(channel internal.SyncChannel, progress internal.SyncProgress)

// Controller tracks sync state per channel. The two channels are fully
// independent: one can run while the other is idle, and starting an
// already-active channel is a no-op.
type Controller struct {
	mu    sync.Mutex
	state map[internal.SyncChannel]internal.SyncProgress

	subs   map[int]Subscriber
	nextID int
}

func NewController() *Controller {
	return &Controller{
		state: map[internal.SyncChannel]internal.SyncProgress{
			internal.ChannelInquiry:       {},
			internal.ChannelPurchaseOrder: {},
		},
		subs: map[int]Subscriber{},
	}
}

// Start claims a channel for a run. It returns false when the channel is
// already active, in which case the caller must not run.
func (c *Controller) Start(channel internal.SyncChannel) bool {
	c.mu.Lock()
	if c.state[channel].IsActive {
		c.mu.Unlock()
		return false
	}
	progress := internal.SyncProgress{IsActive: true}
	c.state[channel] = progress
	subs := c.subscribers()
	c.mu.Unlock()

	c.notify(subs, channel, progress)
	return true
}

func (c *Controller) ReportProgress(channel internal.SyncChannel, current, total, success, failed int) {
	c.set(channel, internal.SyncProgress{
		Current:  current,
		Total:    total,
		Success:  success,
		Failed:   failed,
		IsActive: true,
	})
}

func (c *Controller) Complete(channel internal.SyncChannel, total, success, failed int) {
	c.set(channel, internal.SyncProgress{
		Current: total,
		Total:   total,
		Success: success,
		Failed:  failed,
	})
}

// Error releases the channel after a fatal batch failure. Counts from the
// aborted run are discarded.
func (c *Controller) Error(channel internal.SyncChannel) {
	c.set(channel, internal.SyncProgress{})
}

// Progress returns the channel's current snapshot.
func (c *Controller) Progress(channel internal.SyncChannel) internal.SyncProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state[channel]
}

// Snapshot returns the state of every channel.
func (c *Controller) Snapshot() map[internal.SyncChannel]internal.SyncProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[internal.SyncChannel]internal.SyncProgress, len(c.state))
	for ch, p := range c.state {
		out[ch] = p
	}
	return out
}

// Subscribe registers a callback for state changes and returns an
// unsubscribe function.
func (c *Controller) Subscribe(fn Subscriber) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Controller) set(channel internal.SyncChannel, progress internal.SyncProgress) {
	c.mu.Lock()
	c.state[channel] = progress
	subs := c.subscribers()
	c.mu.Unlock()

	c.notify(subs, channel, progress)
}

// subscribers copies the callback list; callers must hold the lock.
func (c *Controller) subscribers() []Subscriber {
	out := make([]Subscriber, 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

func (c *Controller) notify(subs []Subscriber, channel internal.SyncChannel, progress internal.SyncProgress) {
	for _, fn := range subs {
		fn(channel, progress)
	}
}
