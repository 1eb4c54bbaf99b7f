package server

import (
	"fmt"
	"sync"
	"time"

	"shadowbar/internal/domain"
)

type pendingEntry struct {
	ch       Channel
	deadline time.Time
}

// Pending correlates in-flight requests with the channel waiting for their
// terminal envelope. Each entry is removed exactly once: by Resolve, by
// Remove, or by a Sweep eviction. The removal happens under the table mutex,
// which is what makes a second resolve for the same id a guaranteed no-op.
type Pending struct {
	mu      sync.Mutex
	entries map[string]*pendingEntry
}

func NewPending() *Pending {
	return &Pending{entries: make(map[string]*pendingEntry)}
}

// Add records that ch is waiting for the terminal envelope of requestID.
// A duplicate id is rejected: two live requests must never share one.
func (p *Pending) Add(requestID string, ch Channel, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[requestID]; exists {
		return fmt.Errorf("duplicate request id %q", requestID)
	}
	p.entries[requestID] = &pendingEntry{ch: ch, deadline: time.Now().Add(timeout)}
	return nil
}

// Resolve delivers env to the waiter for its request id. It reports false and
// does nothing when the id is unknown: already resolved, already swept, or
// forged.
func (p *Pending) Resolve(requestID string, env domain.Envelope) bool {
	p.mu.Lock()
	entry, ok := p.entries[requestID]
	if ok {
		delete(p.entries, requestID)
	}
	p.mu.Unlock()

	if !ok {
		return false
	}
	_ = entry.ch.Send(env)
	return true
}

// Remove drops an entry without delivering anything, for callers cleaning up
// after a failed forward.
func (p *Pending) Remove(requestID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.entries[requestID]; !ok {
		return false
	}
	delete(p.entries, requestID)
	return true
}

// Sweep evicts entries past their deadline, notifying each waiter with a
// Timeout error envelope. Returns the number evicted.
func (p *Pending) Sweep(now time.Time) int {
	type evicted struct {
		id string
		ch Channel
	}

	p.mu.Lock()
	var out []evicted
	for id, entry := range p.entries {
		if entry.deadline.Before(now) {
			delete(p.entries, id)
			out = append(out, evicted{id: id, ch: entry.ch})
		}
	}
	p.mu.Unlock()

	for _, e := range out {
		_ = e.ch.Send(domain.Envelope{
			Kind:      domain.KindError,
			RequestID: e.id,
			Reason:    domain.ReasonTimeout,
			Detail:    "no response within the relay deadline",
		})
	}
	return len(out)
}

func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
