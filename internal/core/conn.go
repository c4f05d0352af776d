package core

import (
	"errors"
	"sync"
)

// Frame is a raw outbound payload.
type Frame []byte

// ConnID identifies one live client connection.
type ConnID string

var (
	ErrAlreadyBound = errors.New("connection already bound to a room")
	ErrNotPending   = errors.New("connection is not pending admission")
)

// ClientConn abstracts the transport endpoint of one client.
// Owned by the adapter; the adapter must Close() it.
type ClientConn interface {
	TrySend(Frame) error
	Ping() error
	Close()
}

// State tracks a connection through its lifecycle. A connection binds to
// at most one room and never migrates.
type State int

const (
	StateConnecting State = iota
	StateAdmitted
	StateJoined
	StateClosing
	StateClosed
)

// Connection pairs a client identity with its transport and room binding.
// The mutable fields are guarded here, not by the registry, so lifecycle
// transitions stay idempotent no matter which path triggers them.
type Connection struct {
	ID       ConnID
	Username string

	transport ClientConn

	mu     sync.Mutex
	state  State
	roomID string
	alive  bool
}

func NewConnection(id ConnID, username string, transport ClientConn) *Connection {
	return &Connection{
		ID:        id,
		Username:  username,
		transport: transport,
		state:     StateConnecting,
		// Born alive so a heartbeat tick between registration and the
		// first pong never mistakes a fresh connection for a dead one.
		alive: true,
	}
}

func (c *Connection) Transport() ClientConn { return c.transport }

// RoomID returns the bound room uuid, or "" before admission.
func (c *Connection) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Bind attaches the connection to a room after admission succeeded.
// The binding happens exactly once for the connection's lifetime.
func (c *Connection) Bind(roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.roomID != "" {
		return ErrAlreadyBound
	}
	if c.state != StateConnecting {
		return ErrNotPending
	}
	c.roomID = roomID
	c.state = StateAdmitted
	return nil
}

// MarkJoined moves the connection into the deliverable state once the
// registry and the room store both know about it.
func (c *Connection) MarkJoined() {
	c.mu.Lock()
	c.state = StateJoined
	c.alive = true
	c.mu.Unlock()
}

// BeginClose reports true exactly once; later calls (second explicit
// close, reap racing a transport close) are no-ops.
func (c *Connection) BeginClose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosing || c.state == StateClosed {
		return false
	}
	c.state = StateClosing
	return true
}

func (c *Connection) FinishClose() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
}

func (c *Connection) markAlive() {
	c.mu.Lock()
	c.alive = true
	c.mu.Unlock()
}

// testAndClearAlive reads the liveness flag and clears it for the next
// heartbeat round.
func (c *Connection) testAndClearAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.alive
	c.alive = false
	return was
}
