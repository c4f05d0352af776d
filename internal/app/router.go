package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"coderoom/internal/core"
	"coderoom/internal/domain"
	"coderoom/internal/judge"
)

// EventRouter classifies inbound frames from joined connections and fans
// the resulting events out. Classification order: code update, code
// submission, then chat fallback for anything else (including payloads
// that are not JSON at all).
type EventRouter struct {
	hub   *Hub
	judge judge.JudgeClient
}

func NewEventRouter(hub *Hub, judgeClient judge.JudgeClient) *EventRouter {
	return &EventRouter{hub: hub, judge: judgeClient}
}

type inboundFrame struct {
	Event    string `json:"event"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Dispatch handles one inbound payload from conn. It runs on the
// connection's read goroutine, so events from one sender reach the room
// in the order they were sent. Usernames on outbound events always come
// from the connection binding, never from the payload.
func (rt *EventRouter) Dispatch(conn *core.Connection, payload []byte) {
	roomID := conn.RoomID()
	if roomID == "" {
		return
	}

	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err == nil {
		switch frame.Event {
		case string(domain.EventCode):
			// The sender already has its own code; echoing it back is redundant.
			rt.hub.BroadcastRoomExcept(roomID, conn.ID, domain.CodeUpdate(conn.Username, frame.Code, frame.Language))
			return
		case string(domain.EventUserSubmit):
			rt.handleSubmit(conn, roomID, frame.Code, frame.Language)
			return
		}
	}

	rt.hub.BroadcastRoom(roomID, domain.ChatMessage(conn.Username, string(payload)))
}

// handleSubmit announces the submission to the whole room, then judges
// the code off the dispatch path. The submitter may disconnect while the
// judge runs; the result still goes to the room (the now-closed
// connection is simply no longer registered to receive it).
func (rt *EventRouter) handleSubmit(conn *core.Connection, roomID, code, language string) {
	rt.hub.BroadcastRoom(roomID, domain.SubmissionRequest(conn.Username, code, language))

	go func() {
		// Deliberately not tied to the connection's context: a
		// submission in flight outlives its submitter.
		ctx := context.Background()

		status, err := rt.judgeSubmission(ctx, roomID, language, code)
		if err != nil {
			log.Error().Err(err).Str("module", "app.router").Str("room", roomID).Str("user", conn.Username).Msg("submission failed")
			if sendErr := rt.hub.SendTo(conn, domain.ErrorEvent("Error submitting question")); sendErr != nil {
				log.Debug().Err(sendErr).Str("module", "app.router").Msg("submitter gone before judge error")
			}
			return
		}

		rt.hub.BroadcastRoom(roomID, domain.SubmissionResult(conn.Username, status))
	}()
}

func (rt *EventRouter) judgeSubmission(ctx context.Context, roomID, language, code string) (string, error) {
	room, err := rt.hub.Store.Get(ctx, roomID)
	if err != nil {
		return "", err
	}
	if room.Question == nil {
		return "", judge.ErrJudgeFailed
	}
	return rt.judge.Submit(ctx, *room.Question, language, code)
}
