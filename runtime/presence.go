// Package runtime owns the shared in-memory state of the hub: who is online
// and which connections are watching which conversation. It orchestrates
// without containing business logic or domain rules.
package runtime

import (
	"sort"
	"sync"

	"heartline/contract"
)

// PresenceRegistry is the process-wide map from a username to that user's
// live connections. A username key exists iff the user has at least one
// connection; the registry never holds an empty set.
//
// Every operation is one critical section, so check-then-mutate races are
// impossible. Only map bookkeeping happens under the lock; callers perform
// I/O and fan-out outside of it.
type PresenceRegistry struct {
	mu          sync.RWMutex
	connections map[string]map[string]contract.EventSink // username -> connectionID -> sink
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		connections: make(map[string]map[string]contract.EventSink),
	}
}

// Connect records a live connection and reports whether it is the user's
// first one. The transition to online happens at most once until the user
// fully disconnects again.
func (r *PresenceRegistry) Connect(username, connectionID string, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.connections[username]
	if !ok {
		conns = make(map[string]contract.EventSink)
		r.connections[username] = conns
	}
	conns[connectionID] = sink
	return !ok
}

// Disconnect removes a connection. It reports true only when the removed
// connection was the user's last one; the username entry is removed in the
// same critical section so no empty set is ever observable.
// Disconnecting an unknown pair is a no-op returning false.
func (r *PresenceRegistry) Disconnect(username, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.connections[username]
	if !ok {
		return false
	}
	if _, ok := conns[connectionID]; !ok {
		return false
	}
	delete(conns, connectionID)
	if len(conns) == 0 {
		delete(r.connections, username)
		return true
	}
	return false
}

// OnlineUsers returns a sorted snapshot, not a live view.
func (r *PresenceRegistry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.connections))
	for username := range r.connections {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

// ConnectionsFor returns the connection IDs of a user, empty when offline.
func (r *PresenceRegistry) ConnectionsFor(username string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.connections[username]
	ids := make([]string, 0, len(conns))
	for id := range conns {
		ids = append(ids, id)
	}
	return ids
}

// SinksFor resolves the delivery channels of a user's live connections.
func (r *PresenceRegistry) SinksFor(username string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.connections[username]
	sinks := make([]contract.EventSink, 0, len(conns))
	for _, sink := range conns {
		sinks = append(sinks, sink)
	}
	return sinks
}

// AllSinks snapshots every live sink except the given connection. Used for
// the coarse-grained presence audience (userIsOnline / userIsOffline).
func (r *PresenceRegistry) AllSinks(exceptConnectionID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for _, conns := range r.connections {
		for id, sink := range conns {
			if id == exceptConnectionID {
				continue
			}
			sinks = append(sinks, sink)
		}
	}
	return sinks
}
