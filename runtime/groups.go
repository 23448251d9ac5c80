package runtime

import (
	"sort"
	"sync"

	"heartline/contract"
	"heartline/domain"
	"heartline/errors"
)

type member struct {
	username string
	sink     contract.EventSink
}

type group struct {
	key     string
	members map[string]member // connectionID -> member
}

// GroupRegistry maps a deterministic conversation key to the connections
// currently subscribed to that conversation, plus a reverse index from
// connection to key for disconnect handling.
//
// Get-or-create is atomic: two racing joins for a never-before-seen key end
// up in the same group object, first writer wins.
type GroupRegistry struct {
	mu      sync.RWMutex
	groups  map[string]*group
	byConn  map[string]string // connectionID -> group key
}

func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{
		groups: make(map[string]*group),
		byConn: make(map[string]string),
	}
}

// JoinGroup adds a connection to the group behind key, creating the group
// when absent, and returns the updated membership snapshot.
func (r *GroupRegistry) JoinGroup(key string, conn domain.Connection, sink contract.EventSink) domain.ConversationGroup {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[key]
	if !ok {
		g = &group{key: key, members: make(map[string]member)}
		r.groups[key] = g
	}
	g.members[conn.ID] = member{username: conn.Username, sink: sink}
	r.byConn[conn.ID] = key
	return g.snapshot()
}

// LeaveGroup removes the connection from whatever group currently holds it
// and returns the group as it stood immediately before removal, so callers
// can broadcast to the remaining members. Returns ErrGroupNotFound when the
// connection is not a member of any group; a disconnect may race with the
// group having been cleaned up already, so callers treat this as recoverable.
func (r *GroupRegistry) LeaveGroup(connectionID string) (domain.ConversationGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.byConn[connectionID]
	if !ok {
		return domain.ConversationGroup{}, errors.ErrGroupNotFound
	}
	g := r.groups[key]
	before := g.snapshot()
	delete(g.members, connectionID)
	delete(r.byConn, connectionID)
	return before, nil
}

// Group returns the current snapshot of a group, if it exists.
func (r *GroupRegistry) Group(key string) (domain.ConversationGroup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[key]
	if !ok {
		return domain.ConversationGroup{}, false
	}
	return g.snapshot(), true
}

// IsMember reports whether any connection of the user is currently in the group.
func (r *GroupRegistry) IsMember(key, username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[key]
	if !ok {
		return false
	}
	for _, m := range g.members {
		if m.username == username {
			return true
		}
	}
	return false
}

// SinksForGroup snapshots the delivery channels of every current member.
func (r *GroupRegistry) SinksForGroup(key string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[key]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(g.members))
	for _, m := range g.members {
		sinks = append(sinks, m.sink)
	}
	return sinks
}

// snapshot must be called with the registry lock held.
func (g *group) snapshot() domain.ConversationGroup {
	members := make([]string, 0, len(g.members))
	seen := make(map[string]struct{}, len(g.members))
	for _, m := range g.members {
		if _, ok := seen[m.username]; ok {
			continue
		}
		seen[m.username] = struct{}{}
		members = append(members, m.username)
	}
	sort.Strings(members)
	return domain.ConversationGroup{Key: g.key, Members: members}
}
