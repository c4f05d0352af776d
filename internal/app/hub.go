package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"coderoom/internal/core"
	"coderoom/internal/domain"
	"coderoom/internal/store"
)

// Hub coordinates the connection lifecycle: admission, registration,
// membership bookkeeping in the room store, and the join/leave
// broadcasts. All teardown paths (client close, heartbeat reap, send
// failure) converge on Teardown.
type Hub struct {
	Registry  *core.Registry
	Store     store.RoomStore
	Admission *AdmissionController
}

func NewHub(registry *core.Registry, st store.RoomStore, admission *AdmissionController) *Hub {
	return &Hub{Registry: registry, Store: st, Admission: admission}
}

// Join runs admission and, on success, makes the connection deliverable:
// registry entry, store member-add, userJoined broadcast to the rest of
// the room. A store failure after registration rolls the registration
// back and reports the error to the caller.
func (h *Hub) Join(ctx context.Context, conn *core.Connection, roomUUID, suppliedPassword string) error {
	room, err := h.Admission.Admit(ctx, roomUUID, suppliedPassword, conn)
	if err != nil {
		return err
	}
	if err := conn.Bind(room.UUID); err != nil {
		return ErrAlreadyInRoom
	}

	h.Registry.Register(conn)

	room.AddMember(conn.Username)
	if err := h.Store.Put(ctx, room); err != nil {
		h.Registry.Unregister(conn.ID)
		return fmt.Errorf("record membership: %w", err)
	}

	conn.MarkJoined()
	h.BroadcastRoomExcept(room.UUID, conn.ID, domain.UserJoined(conn.Username))
	log.Info().Str("module", "app.hub").Str("conn", string(conn.ID)).Str("room", room.UUID).Str("user", conn.Username).Msg("joined room")
	return nil
}

// Teardown closes a connection and undoes its room membership. Safe to
// invoke from any lifecycle state and any number of times: only the
// first call broadcasts userLeft and touches the store. Store errors are
// logged and never block local cleanup.
func (h *Hub) Teardown(ctx context.Context, conn *core.Connection) {
	if !conn.BeginClose() {
		return
	}
	roomID := conn.RoomID()

	conn.Transport().Close()
	h.Registry.Unregister(conn.ID)

	if roomID != "" {
		if err := h.removeMember(ctx, roomID, conn.Username); err != nil {
			log.Error().Err(err).Str("module", "app.hub").Str("room", roomID).Str("user", conn.Username).Msg("membership cleanup failed")
		}
		h.BroadcastRoom(roomID, domain.UserLeft(conn.Username))
	}

	conn.FinishClose()
	log.Info().Str("module", "app.hub").Str("conn", string(conn.ID)).Str("room", roomID).Msg("connection closed")
}

// removeMember mirrors the leave into the room store, deleting the room
// record entirely when the last member goes.
func (h *Hub) removeMember(ctx context.Context, roomUUID, username string) error {
	room, err := h.Store.Get(ctx, roomUUID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if len(room.Members) <= 1 {
		return h.Store.Delete(ctx, roomUUID)
	}
	room.RemoveMember(username)
	return h.Store.Put(ctx, room)
}

// SendTo delivers one event to one connection. Errors are returned, not
// acted on; only fan-out paths escalate a failed send into a teardown.
func (h *Hub) SendTo(conn *core.Connection, ev domain.WireEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Transport().TrySend(data)
}

// BroadcastRoom fans an event out to every connection in the room. A
// connection that cannot accept the frame is treated as dead and torn
// down after the sweep; its neighbours only ever observe the resulting
// userLeft.
func (h *Hub) BroadcastRoom(roomID string, ev domain.WireEvent) {
	h.broadcast(roomID, "", ev)
}

// BroadcastRoomExcept is BroadcastRoom minus the sender.
func (h *Hub) BroadcastRoomExcept(roomID string, except core.ConnID, ev domain.WireEvent) {
	h.broadcast(roomID, except, ev)
}

func (h *Hub) broadcast(roomID string, except core.ConnID, ev domain.WireEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("marshal event")
		return
	}

	var failed []*core.Connection
	visit := func(c *core.Connection) {
		if err := c.Transport().TrySend(data); err != nil {
			failed = append(failed, c)
		}
	}
	if except == "" {
		h.Registry.ForEachInRoom(roomID, visit)
	} else {
		h.Registry.ForEachInRoomExcept(roomID, except, visit)
	}

	for _, c := range failed {
		log.Warn().Str("module", "app.hub").Str("conn", string(c.ID)).Msg("send failed, reaping connection")
		h.Teardown(context.Background(), c)
	}
}
