// Package projection builds read models from observed hub events.
// Projections consume events like any connection sink; they never emit
// events back into the hub.
package projection

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"heartline/domain"
	"heartline/domain/event"
)

// ThreadPreview is one conversation line in a user's inbox: who it is
// with, the latest message, and how many messages await them.
type ThreadPreview struct {
	GroupKey    string `json:"groupKey"`
	With        string `json:"with"`
	LastSender  string `json:"lastSender"`
	LastContent string `json:"lastContent"`
	LastSentAt  int64  `json:"lastSentAt"`
	Unread      int    `json:"unread"`
}

// Inbox maintains per-user conversation previews with unread counters.
// It is registered as a router tap and fed NewMessage and ThreadViewed
// events. Counts reflect what the hub observed since startup; the
// persisted thread remains the source of truth.
type Inbox struct {
	mu       sync.RWMutex
	previews map[string]map[string]*ThreadPreview // owner -> groupKey
}

func NewInbox() *Inbox {
	return &Inbox{previews: make(map[string]map[string]*ThreadPreview)}
}

func (i *Inbox) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.NewMessage:
		i.observe(evt.Message)
	case event.ThreadViewed:
		i.markViewed(evt.Username, evt.GroupKey)
	}
	return nil
}

// Previews lists the owner's conversations, most recent first.
func (i *Inbox) Previews(owner string) []ThreadPreview {
	i.mu.RLock()
	defer i.mu.RUnlock()

	entries := lo.Map(lo.Values(i.previews[owner]), func(p *ThreadPreview, _ int) ThreadPreview {
		return *p
	})
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].LastSentAt > entries[b].LastSentAt
	})
	return entries
}

// UnreadTotal sums pending messages across all of the owner's conversations.
func (i *Inbox) UnreadTotal(owner string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return lo.SumBy(lo.Values(i.previews[owner]), func(p *ThreadPreview) int {
		return p.Unread
	})
}

func (i *Inbox) observe(m domain.Message) {
	key := domain.GroupKey(m.SenderUsername, m.RecipientUsername)

	i.mu.Lock()
	defer i.mu.Unlock()

	sent := i.preview(m.SenderUsername, key, m.RecipientUsername)
	i.stamp(sent, m)

	received := i.preview(m.RecipientUsername, key, m.SenderUsername)
	i.stamp(received, m)
	if !m.Read() {
		received.Unread++
	}
}

func (i *Inbox) markViewed(owner, key string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if p, ok := i.previews[owner][key]; ok {
		p.Unread = 0
	}
}

func (i *Inbox) preview(owner, key, with string) *ThreadPreview {
	byGroup, ok := i.previews[owner]
	if !ok {
		byGroup = make(map[string]*ThreadPreview)
		i.previews[owner] = byGroup
	}
	p, ok := byGroup[key]
	if !ok {
		p = &ThreadPreview{GroupKey: key, With: with}
		byGroup[key] = p
	}
	return p
}

func (i *Inbox) stamp(p *ThreadPreview, m domain.Message) {
	p.LastSender = m.SenderUsername
	p.LastContent = m.Content
	p.LastSentAt = m.SentAt.UnixNano()
}
