// Package registry implements the participant registry (spec §4.3): the
// set of currently-connected, named participants and their outbound
// queues.
//
// The teacher's websocket.Hub keeps this same map-of-connections shape
// but drives it as a single-goroutine actor reading register/unregister/
// broadcast channels. This registry is simpler than it needs to be for
// that: spec §4.5 requires the router to compute fan-out against a
// point-in-time Snapshot, so the registry is a directly-called,
// RWMutex-guarded map instead of a channel-serialized actor. The lock is
// held only for map bookkeeping, never across an Outbox.Push or any I/O,
// matching the teacher's own discipline of never holding Hub.mu across a
// network write.
package registry

import (
	"errors"
	"sync"

	"github.com/coregx/chatbroker/internal/outbox"
)

// ErrNameTaken is returned by Insert when the requested name is already
// held by another connected participant (spec §4.4 handshake rule).
var ErrNameTaken = errors.New("registry: name already taken")

// Participant is one connected, named chat participant.
type Participant struct {
	Name   string
	Outbox *outbox.Outbox
}

// Registry is the thread-safe set of connected participants, keyed by
// name. The zero value is not usable; use New.
type Registry struct {
	mu           sync.RWMutex
	participants map[string]*Participant
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{participants: make(map[string]*Participant)}
}

// Insert adds a new participant under name if, and only if, no
// participant currently holds that name. The check and the insert
// happen under one lock acquisition, so two concurrent handshakes for
// the same name can never both succeed (spec §4.4: "username uniqueness
// must be checked and reserved atomically").
func (r *Registry) Insert(name string, ob *outbox.Outbox) (*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.participants[name]; exists {
		return nil, ErrNameTaken
	}

	p := &Participant{Name: name, Outbox: ob}
	r.participants[name] = p
	return p, nil
}

// Remove deletes the participant with the given name, if present.
// Removing a name that is not present is a no-op (spec §4.4: teardown
// must be idempotent).
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, name)
}

// Lookup returns the participant with the given name, if connected.
func (r *Registry) Lookup(name string) (*Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[name]
	return p, ok
}

// Snapshot returns a point-in-time copy of all connected participants.
// Callers (principally the router) iterate the returned slice without
// holding any registry lock, so a connection joining or leaving mid-
// iteration never races with the snapshot itself — it simply isn't
// reflected in this particular snapshot (spec §4.5 design note).
func (r *Registry) Snapshot() []*Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	return out
}

// Count returns the number of currently connected participants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// BroadcastToOthers enqueues payload on every connected participant's
// Outbox except the one named except. It performs no I/O itself: Push
// only appends to an in-memory queue, so this runs entirely off the
// registry lock's critical section once Snapshot returns.
func (r *Registry) BroadcastToOthers(except string, payload []byte) {
	for _, p := range r.Snapshot() {
		if p.Name == except {
			continue
		}
		p.Outbox.Push(payload)
	}
}

// BroadcastToAll enqueues payload on every connected participant's
// Outbox, used by the broker's shutdown notice (spec §4.6).
func (r *Registry) BroadcastToAll(payload []byte) {
	for _, p := range r.Snapshot() {
		p.Outbox.Push(payload)
	}
}
