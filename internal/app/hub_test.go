package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"coderoom/internal/domain"
	"coderoom/internal/store"
)

func TestJoinBroadcastsToOthersOnly(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	seedRoom(t, st, "room-1", 4, "")

	_, connA := joinConn(t, hub, "alice", "room-1", "")
	_, connB := joinConn(t, hub, "bob", "room-1", "")

	joins := connA.eventsOfKind(t, domain.EventUserJoined)
	req.Len(joins, 1)
	req.Equal("bob", joins[0].Username)

	// The joiner never sees its own join notice.
	req.Empty(connB.eventsOfKind(t, domain.EventUserJoined))

	stored, err := st.Get(context.Background(), "room-1")
	req.NoError(err)
	req.ElementsMatch([]string{"alice", "bob"}, stored.Members)
	req.Equal(2, hub.Registry.CountInRoom("room-1"))
}

func TestJoinRejectedLeavesNoTrace(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	seedRoom(t, st, "room-1", 4, "wrong-but-set")

	transport := &fakeConn{}
	conn := coreConn("alice", transport)
	err := hub.Join(context.Background(), conn, "room-1", "whatever")
	req.ErrorIs(err, ErrIncorrectPassword)

	req.Equal(0, hub.Registry.Len())
	stored, err := st.Get(context.Background(), "room-1")
	req.NoError(err)
	req.Empty(stored.Members)
}

func TestCapacityScenario(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	seedRoom(t, st, "duo", 2, "")

	_, _ = joinConn(t, hub, "alice", "duo", "")
	connB, _ := joinConn(t, hub, "bob", "duo", "")

	// Third member bounces off the capacity check.
	transport := &fakeConn{}
	connC := coreConn("carol", transport)
	err := hub.Join(context.Background(), connC, "duo", "")
	req.ErrorIs(err, ErrRoomFull)

	// A slot frees up when bob leaves; carol needs a fresh connection
	// since a rejected one stays unbound but reusable, while bob's is
	// gone for good.
	hub.Teardown(context.Background(), connB)

	retry := coreConn("carol", &fakeConn{})
	req.NoError(hub.Join(context.Background(), retry, "duo", ""))

	stored, err := st.Get(context.Background(), "duo")
	req.NoError(err)
	req.ElementsMatch([]string{"alice", "carol"}, stored.Members)
}

func TestTeardownIsIdempotent(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	seedRoom(t, st, "room-1", 4, "")

	_, connA := joinConn(t, hub, "alice", "room-1", "")
	connB, transportB := joinConn(t, hub, "bob", "room-1", "")

	hub.Teardown(context.Background(), connB)
	hub.Teardown(context.Background(), connB)

	req.True(transportB.isClosed())
	req.Len(connA.eventsOfKind(t, domain.EventUserLeft), 1)

	stored, err := st.Get(context.Background(), "room-1")
	req.NoError(err)
	req.Equal([]string{"alice"}, stored.Members)
}

func TestLastMemberLeavingDeletesRoom(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	seedRoom(t, st, "room-1", 4, "")

	conn, _ := joinConn(t, hub, "alice", "room-1", "")
	hub.Teardown(context.Background(), conn)

	_, err := st.Get(context.Background(), "room-1")
	req.ErrorIs(err, store.ErrRoomNotFound)
	req.Equal(0, hub.Registry.Len())
}

func TestBroadcastReapsUndeliverable(t *testing.T) {
	req := require.New(t)
	hub, st := newTestHub(t)
	seedRoom(t, st, "room-1", 4, "")

	_, connA := joinConn(t, hub, "alice", "room-1", "")
	_, transportB := joinConn(t, hub, "bob", "room-1", "")

	// bob's transport starts rejecting writes; the next fan-out takes
	// him out through the normal leave path.
	transportB.mu.Lock()
	transportB.sendErr = ErrTransportStub
	transportB.mu.Unlock()

	hub.BroadcastRoom("room-1", domain.ChatMessage("alice", "hi"))

	req.Equal(1, hub.Registry.CountInRoom("room-1"))
	req.Len(connA.eventsOfKind(t, domain.EventUserLeft), 1)

	stored, err := st.Get(context.Background(), "room-1")
	req.NoError(err)
	req.Equal([]string{"alice"}, stored.Members)
}
