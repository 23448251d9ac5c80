package runtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"heartline/domain"
	"heartline/errors"
)

func TestGroupKey_IsSymmetric(t *testing.T) {
	req := require.New(t)

	pairs := [][2]string{
		{"alice", "bob"},
		{"bob", "alice"},
		{"zoe", "anna"},
		{"same", "same"},
	}
	for _, p := range pairs {
		req.Equal(domain.GroupKey(p[0], p[1]), domain.GroupKey(p[1], p[0]))
	}
	req.Equal("alice-bob", domain.GroupKey("bob", "alice"))
}

func TestGroupRegistry_JoinCreatesGroupOnDemand(t *testing.T) {
	req := require.New(t)
	registry := NewGroupRegistry()
	conn := domain.Connection{ID: uuid.NewString(), Username: "alice"}

	// Given the group does not exist
	_, ok := registry.Group("alice-bob")
	req.False(ok)

	// When alice joins
	group := registry.JoinGroup("alice-bob", conn, nopSink{})

	// Then the group exists with alice as sole member
	req.Equal("alice-bob", group.Key)
	req.Equal([]string{"alice"}, group.Members)
	req.True(registry.IsMember("alice-bob", "alice"))
	req.False(registry.IsMember("alice-bob", "bob"))
}

func TestGroupRegistry_BothParticipantsShareOneGroup(t *testing.T) {
	req := require.New(t)
	registry := NewGroupRegistry()

	registry.JoinGroup("alice-bob", domain.Connection{ID: uuid.NewString(), Username: "alice"}, nopSink{})
	group := registry.JoinGroup("alice-bob", domain.Connection{ID: uuid.NewString(), Username: "bob"}, nopSink{})

	req.Equal([]string{"alice", "bob"}, group.Members)
	req.Len(registry.SinksForGroup("alice-bob"), 2)
}

func TestGroupRegistry_LeaveReturnsPreRemovalSnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewGroupRegistry()
	aliceConn := uuid.NewString()
	registry.JoinGroup("alice-bob", domain.Connection{ID: aliceConn, Username: "alice"}, nopSink{})
	registry.JoinGroup("alice-bob", domain.Connection{ID: uuid.NewString(), Username: "bob"}, nopSink{})

	// When alice leaves
	before, err := registry.LeaveGroup(aliceConn)
	req.NoError(err)

	// Then the snapshot still lists both members
	req.Equal([]string{"alice", "bob"}, before.Members)

	// And the live group only holds bob
	after, ok := registry.Group("alice-bob")
	req.True(ok)
	req.Equal([]string{"bob"}, after.Members)
	req.False(registry.IsMember("alice-bob", "alice"))
}

func TestGroupRegistry_LeaveUnknownConnection(t *testing.T) {
	req := require.New(t)
	registry := NewGroupRegistry()

	_, err := registry.LeaveGroup(uuid.NewString())

	req.ErrorIs(err, errors.ErrGroupNotFound)
}

func TestGroupRegistry_MultiDeviceMembership(t *testing.T) {
	req := require.New(t)
	registry := NewGroupRegistry()
	phone := uuid.NewString()
	laptop := uuid.NewString()

	registry.JoinGroup("alice-bob", domain.Connection{ID: phone, Username: "alice"}, nopSink{})
	group := registry.JoinGroup("alice-bob", domain.Connection{ID: laptop, Username: "alice"}, nopSink{})

	// Two connections, one username in the snapshot
	req.Equal([]string{"alice"}, group.Members)
	req.Len(registry.SinksForGroup("alice-bob"), 2)

	// Dropping one device keeps alice a member
	_, err := registry.LeaveGroup(phone)
	req.NoError(err)
	req.True(registry.IsMember("alice-bob", "alice"))
}

// TestGroupRegistry_ConcurrentGetOrCreate reproduces the creation race: many
// connections joining a never-before-seen key at the same instant must all
// land in the same group, never in divergent copies.
func TestGroupRegistry_ConcurrentGetOrCreate(t *testing.T) {
	req := require.New(t)
	registry := NewGroupRegistry()

	const numConns = 80
	var wg sync.WaitGroup

	for i := 0; i < numConns; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			username := "alice"
			if n%2 == 0 {
				username = "bob"
			}
			registry.JoinGroup("alice-bob", domain.Connection{ID: uuid.NewString(), Username: username}, nopSink{})
		}(i)
	}
	wg.Wait()

	group, ok := registry.Group("alice-bob")
	req.True(ok)
	req.Equal([]string{"alice", "bob"}, group.Members)
	req.Len(registry.SinksForGroup("alice-bob"), numConns)
}
