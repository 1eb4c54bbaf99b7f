package server

import (
	"sync"
	"time"

	"shadowbar/internal/domain"
)

// AgentInfo is the introspection view of one registration.
type AgentInfo struct {
	Address     domain.Address `json:"address"`
	Summary     string         `json:"summary,omitempty"`
	ConnectedAt time.Time      `json:"connected_at"`
	LastSeen    time.Time      `json:"last_seen"`
}

type registration struct {
	ch          Channel
	summary     string
	connectedAt time.Time
	lastSeen    time.Time
}

// Registry maps agent addresses to their live announce channels. At most one
// live entry exists per address: a re-announce from the same address
// supersedes and closes the previous channel.
type Registry struct {
	mu     sync.Mutex
	agents map[domain.Address]*registration
}

func NewRegistry() *Registry {
	return &Registry{agents: make(map[domain.Address]*registration)}
}

// Register installs ch as the live channel for addr, closing any prior one.
func (r *Registry) Register(addr domain.Address, ch Channel, summary string) {
	now := time.Now()

	r.mu.Lock()
	old := r.agents[addr]
	r.agents[addr] = &registration{ch: ch, summary: summary, connectedAt: now, lastSeen: now}
	r.mu.Unlock()

	if old != nil && old.ch != ch {
		_ = old.ch.Close()
	}
}

// Heartbeat refreshes the liveness timestamp, but only when ch is still the
// current registrant.
func (r *Registry) Heartbeat(addr domain.Address, ch Channel, summary string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.agents[addr]
	if !ok || reg.ch != ch {
		return
	}
	reg.lastSeen = time.Now()
	if summary != "" {
		reg.summary = summary
	}
}

// Unregister removes addr, but only when ch is still the current registrant.
// A stale disconnect must never evict a newer connection.
func (r *Registry) Unregister(addr domain.Address, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg, ok := r.agents[addr]; ok && reg.ch == ch {
		delete(r.agents, addr)
	}
}

// Lookup returns the live channel for addr, if any.
func (r *Registry) Lookup(addr domain.Address) (Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.agents[addr]
	if !ok {
		return nil, false
	}
	return reg.ch, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.agents)
}

// Snapshot returns the current registrations for the introspection surface.
func (r *Registry) Snapshot() []AgentInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]AgentInfo, 0, len(r.agents))
	for addr, reg := range r.agents {
		out = append(out, AgentInfo{
			Address:     addr,
			Summary:     reg.summary,
			ConnectedAt: reg.connectedAt,
			LastSeen:    reg.lastSeen,
		})
	}
	return out
}

// SweepStale evicts agents whose last heartbeat is older than maxAge and
// closes their channels. Returns the number evicted.
func (r *Registry) SweepStale(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	var evicted []Channel
	for addr, reg := range r.agents {
		if reg.lastSeen.Before(cutoff) {
			delete(r.agents, addr)
			evicted = append(evicted, reg.ch)
		}
	}
	r.mu.Unlock()

	for _, ch := range evicted {
		_ = ch.Close()
	}
	return len(evicted)
}
