package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"heartline/domain/event"
)

type nopSink struct{}

func (nopSink) Consume(_ context.Context, _ event.DomainEvent) error { return nil }

func TestPresenceRegistry_FirstConnectionGoesOnline(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry()
	c1 := uuid.NewString()
	c2 := uuid.NewString()

	// Given no connection is registered
	req.Empty(registry.OnlineUsers())

	// When the same user connects from two devices
	first := registry.Connect("alice", c1, nopSink{})
	second := registry.Connect("alice", c2, nopSink{})

	// Then only the first connection flips the user online
	req.True(first)
	req.False(second)

	// And both connections are recorded
	req.ElementsMatch([]string{c1, c2}, registry.ConnectionsFor("alice"))
	req.Equal([]string{"alice"}, registry.OnlineUsers())
}

func TestPresenceRegistry_LastDisconnectGoesOffline(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry()
	c1 := uuid.NewString()
	c2 := uuid.NewString()
	registry.Connect("alice", c1, nopSink{})
	registry.Connect("alice", c2, nopSink{})

	// When connections drop one by one
	// Then only the removal of the last one reports offline
	req.False(registry.Disconnect("alice", c1))
	req.True(registry.Disconnect("alice", c2))

	// And the registry holds no trace of the user
	req.Empty(registry.OnlineUsers())
	req.Empty(registry.ConnectionsFor("alice"))
}

func TestPresenceRegistry_DisconnectIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry()
	c1 := uuid.NewString()
	registry.Connect("alice", c1, nopSink{})

	req.True(registry.Disconnect("alice", c1))

	// A second disconnect for the same pair is a no-op, never an error
	req.False(registry.Disconnect("alice", c1))
	req.False(registry.Disconnect("ghost", uuid.NewString()))
}

func TestPresenceRegistry_OnlineUsersIsSorted(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry()

	registry.Connect("zoe", uuid.NewString(), nopSink{})
	registry.Connect("alice", uuid.NewString(), nopSink{})
	registry.Connect("marc", uuid.NewString(), nopSink{})

	req.Equal([]string{"alice", "marc", "zoe"}, registry.OnlineUsers())
}

func TestPresenceRegistry_AllSinksExcludesCaller(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry()
	caller := uuid.NewString()

	registry.Connect("alice", caller, nopSink{})
	registry.Connect("bob", uuid.NewString(), nopSink{})
	registry.Connect("bob", uuid.NewString(), nopSink{})

	req.Len(registry.AllSinks(caller), 2)
	req.Len(registry.AllSinks(""), 3)
}

// TestPresenceRegistry_ConcurrentConnects validates that N goroutines each
// connecting a distinct user end up as exactly N online users with no lost
// entries, whatever the interleaving.
func TestPresenceRegistry_ConcurrentConnects(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry()

	const numUsers = 100
	var wg sync.WaitGroup

	for i := 0; i < numUsers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			registry.Connect(fmt.Sprintf("user_%03d", n), uuid.NewString(), nopSink{})
		}(i)
	}
	wg.Wait()

	req.Len(registry.OnlineUsers(), numUsers)
}

// TestPresenceRegistry_ConcurrentSameUser reproduces the two-devices race: the
// same user connecting from many devices at the same instant must not lose an
// update, and exactly one call observes the online transition.
func TestPresenceRegistry_ConcurrentSameUser(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry()

	const numDevices = 50
	var wg sync.WaitGroup
	results := make(chan bool, numDevices)
	ids := make([]string, numDevices)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	for i := 0; i < numDevices; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results <- registry.Connect("alice", ids[n], nopSink{})
		}(i)
	}
	wg.Wait()
	close(results)

	wentOnline := 0
	for r := range results {
		if r {
			wentOnline++
		}
	}

	// Then exactly one connect observed the transition
	req.Equal(1, wentOnline)
	// And every device ended up recorded
	req.ElementsMatch(ids, registry.ConnectionsFor("alice"))
}

// TestPresenceRegistry_ConcurrentDisconnects mirrors the race on the way out:
// exactly one disconnect observes the offline transition.
func TestPresenceRegistry_ConcurrentDisconnects(t *testing.T) {
	req := require.New(t)
	registry := NewPresenceRegistry()

	const numDevices = 50
	ids := make([]string, numDevices)
	for i := range ids {
		ids[i] = uuid.NewString()
		registry.Connect("alice", ids[i], nopSink{})
	}

	var wg sync.WaitGroup
	results := make(chan bool, numDevices)
	for i := 0; i < numDevices; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results <- registry.Disconnect("alice", ids[n])
		}(i)
	}
	wg.Wait()
	close(results)

	wentOffline := 0
	for r := range results {
		if r {
			wentOffline++
		}
	}

	req.Equal(1, wentOffline)
	req.Empty(registry.OnlineUsers())
}
