package core

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry tracks every live connection, keyed by connection id, with
// room-indexed iteration for fan-out. It is the single source of truth
// for "is this connection currently deliverable"; the room store's
// member lists are a best-effort mirror maintained by the hub.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]*Connection)}
}

func (r *Registry) Register(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID] = c
	log.Info().Str("module", "core.registry").Str("conn", string(c.ID)).Str("user", c.Username).Msg("registered connection")
}

// Unregister is idempotent; removing an absent connection is a no-op.
func (r *Registry) Unregister(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return
	}
	delete(r.conns, id)
	log.Info().Str("module", "core.registry").Str("conn", string(id)).Msg("unregistered connection")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// snapshotRoom copies the matching connections under the read lock so
// callers can iterate without holding it.
func (r *Registry) snapshotRoom(roomID string, except ConnID) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for id, c := range r.conns {
		if id == except {
			continue
		}
		if c.RoomID() == roomID {
			out = append(out, c)
		}
	}
	return out
}

// ForEachInRoom visits every connection bound to the room. The visit set
// is a snapshot taken at call time; connections joining or leaving while
// fn runs may or may not be visited.
func (r *Registry) ForEachInRoom(roomID string, fn func(*Connection)) {
	for _, c := range r.snapshotRoom(roomID, "") {
		fn(c)
	}
}

// ForEachInRoomExcept is ForEachInRoom minus one connection, typically
// the event's sender.
func (r *Registry) ForEachInRoomExcept(roomID string, except ConnID, fn func(*Connection)) {
	for _, c := range r.snapshotRoom(roomID, except) {
		fn(c)
	}
}

// CountInRoom reports how many registered connections are bound to the room.
func (r *Registry) CountInRoom(roomID string) int {
	return len(r.snapshotRoom(roomID, ""))
}

// MarkAlive records a heartbeat response. Unknown ids are ignored: the
// pong may race a reap that already removed the connection.
func (r *Registry) MarkAlive(id ConnID) {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()
	if ok {
		c.markAlive()
	}
}

// SweepDead clears the liveness flag on every registered connection and
// splits them into the ones that never responded since the last sweep
// (dead, due for reaping) and the ones due for a fresh probe.
func (r *Registry) SweepDead() (dead, probe []*Connection) {
	r.mu.RLock()
	all := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		all = append(all, c)
	}
	r.mu.RUnlock()

	for _, c := range all {
		if c.testAndClearAlive() {
			probe = append(probe, c)
		} else {
			dead = append(dead, c)
		}
	}
	return dead, probe
}
