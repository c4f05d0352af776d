package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"coderoom/internal/domain"
)

func setupTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)
	ctx := context.Background()

	room := &domain.Room{
		Name:     "algoclub",
		Size:     4,
		UUID:     uuid.NewString(),
		Owner:    "alice",
		Password: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Members:  []string{"alice"},
		Question: &domain.QuestionMeta{ID: 1, TitleSlug: "two-sum"},
	}
	req.NoError(s.Put(ctx, room))

	got, err := s.Get(ctx, room.UUID)
	req.NoError(err)
	req.Equal(room, got)
}

func TestBadgerStoreGetMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestBadgerStoreDelete(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)
	ctx := context.Background()

	room := &domain.Room{Name: "r", Size: 2, UUID: uuid.NewString(), Members: []string{}}
	req.NoError(s.Put(ctx, room))
	req.NoError(s.Delete(ctx, room.UUID))

	_, err := s.Get(ctx, room.UUID)
	req.ErrorIs(err, ErrRoomNotFound)

	// Deleting an absent room is not an error.
	req.NoError(s.Delete(ctx, room.UUID))
}

func TestBadgerStoreList(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)
	ctx := context.Background()

	req.NoError(s.Put(ctx, &domain.Room{Name: "one", Size: 2, UUID: "uuid-1", Members: []string{}}))
	req.NoError(s.Put(ctx, &domain.Room{Name: "two", Size: 3, UUID: "uuid-2", Members: []string{"bob"}}))

	rooms, err := s.List(ctx)
	req.NoError(err)
	req.Len(rooms, 2)

	names := []string{rooms[0].Name, rooms[1].Name}
	req.ElementsMatch([]string{"one", "two"}, names)
}
