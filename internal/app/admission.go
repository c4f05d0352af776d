package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"coderoom/internal/auth"
	"coderoom/internal/core"
	"coderoom/internal/domain"
	"coderoom/internal/store"
)

// Admission rejection reasons. Each one is terminal for the connection
// attempt: the caller reports it once and closes the transport.
var (
	ErrRoomRequired      = errors.New("Room uuid is required")
	ErrRoomNotFound      = errors.New("Room does not exist")
	ErrAlreadyInRoom     = errors.New("You are already in a room")
	ErrPasswordRequired  = errors.New("Password is required to join this room")
	ErrIncorrectPassword = errors.New("Incorrect password")
	ErrRoomFull          = errors.New("Room is full")
)

// AdmissionController decides whether a connection may join a room. It
// never mutates membership; the hub writes membership right after a
// successful admission to keep the check-then-write window small.
type AdmissionController struct {
	store    store.RoomStore
	verifier auth.Verifier
}

func NewAdmissionController(st store.RoomStore, verifier auth.Verifier) *AdmissionController {
	return &AdmissionController{store: st, verifier: verifier}
}

// Admit validates the join attempt and returns the room on success.
// The member count is read fresh from the store on every call; two
// concurrent joins can still both pass the capacity check, since the
// store offers no cross-process read-modify-write. Accepted gap.
func (a *AdmissionController) Admit(ctx context.Context, roomUUID, suppliedPassword string, conn *core.Connection) (*domain.Room, error) {
	if conn.RoomID() != "" {
		return nil, ErrAlreadyInRoom
	}
	if roomUUID == "" {
		return nil, ErrRoomRequired
	}

	room, err := a.store.Get(ctx, roomUUID)
	if errors.Is(err, store.ErrRoomNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("module", "app.admission").Str("room", roomUUID).Msg("room lookup failed")
		return nil, ErrRoomNotFound
	}

	if room.HasPassword() {
		if suppliedPassword == "" {
			return nil, ErrPasswordRequired
		}
		ok, err := a.verifier.Verify(room.Password, suppliedPassword)
		if err != nil {
			log.Error().Err(err).Str("module", "app.admission").Str("room", roomUUID).Msg("password verify failed")
			return nil, ErrIncorrectPassword
		}
		if !ok {
			return nil, ErrIncorrectPassword
		}
	}

	if room.IsFull() {
		return nil, ErrRoomFull
	}

	log.Info().Str("module", "app.admission").Str("room", roomUUID).Str("user", conn.Username).Msg("admitted")
	return room, nil
}
