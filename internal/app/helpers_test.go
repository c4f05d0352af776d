package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"coderoom/internal/auth"
	"coderoom/internal/core"
	"coderoom/internal/domain"
	"coderoom/internal/judge"
	"coderoom/internal/store"
)

// fakeConn records every frame handed to it and can be told to fail.
type fakeConn struct {
	mu      sync.Mutex
	frames  []core.Frame
	sendErr error
	pingErr error
	pings   int
	closed  bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

// events decodes everything received so far.
func (f *fakeConn) events(t *testing.T) []domain.WireEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.WireEvent, 0, len(f.frames))
	for _, fr := range f.frames {
		var ev domain.WireEvent
		require.NoError(t, json.Unmarshal(fr, &ev))
		out = append(out, ev)
	}
	return out
}

func (f *fakeConn) eventsOfKind(t *testing.T, kind domain.EventKind) []domain.WireEvent {
	t.Helper()
	var out []domain.WireEvent
	for _, ev := range f.events(t) {
		if ev.Event == kind {
			out = append(out, ev)
		}
	}
	return out
}

// fakeJudge returns a canned status or error, after an optional gate.
type fakeJudge struct {
	status  string
	err     error
	release chan struct{}
}

func (j *fakeJudge) RandomQuestion(context.Context) (*judge.Question, error) {
	return &judge.Question{ID: 1, TitleSlug: "two-sum"}, nil
}

func (j *fakeJudge) Submit(ctx context.Context, _ domain.QuestionMeta, _, _ string) (string, error) {
	if j.release != nil {
		<-j.release
	}
	if j.err != nil {
		return "", j.err
	}
	return j.status, nil
}

func newTestHub(t *testing.T) (*Hub, *store.BadgerStore) {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	registry := core.NewRegistry()
	admission := NewAdmissionController(st, auth.Argon2Verifier{})
	return NewHub(registry, st, admission), st
}

func seedRoom(t *testing.T, st store.RoomStore, uuid string, size int, passwordHash string) *domain.Room {
	t.Helper()
	room := &domain.Room{
		Name:     "room-" + uuid,
		Size:     size,
		UUID:     uuid,
		Owner:    "owner",
		Password: passwordHash,
		Members:  []string{},
		Question: &domain.QuestionMeta{ID: 1, TitleSlug: "two-sum"},
	}
	require.NoError(t, st.Put(context.Background(), room))
	return room
}

func joinConn(t *testing.T, hub *Hub, username, roomUUID, password string) (*core.Connection, *fakeConn) {
	t.Helper()
	transport := &fakeConn{}
	conn := core.NewConnection(core.ConnID("conn-"+username), username, transport)
	require.NoError(t, hub.Join(context.Background(), conn, roomUUID, password))
	return conn, transport
}

func coreConn(username string, transport core.ClientConn) *core.Connection {
	return core.NewConnection(core.ConnID("conn-"+username), username, transport)
}

var (
	errJudgeDown     = errors.New("judge unreachable")
	ErrTransportStub = errors.New("transport stub failure")
)
