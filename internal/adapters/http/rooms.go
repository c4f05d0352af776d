package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"coderoom/internal/auth"
	"coderoom/internal/domain"
	"coderoom/internal/judge"
	"coderoom/internal/store"
)

// RoomsController serves the room CRUD surface. Passwords are hashed on
// the way in and stripped from every response.
type RoomsController struct {
	store    store.RoomStore
	verifier auth.Verifier
	judge    judge.JudgeClient
}

type roomInput struct {
	Name     string `json:"name" binding:"required"`
	Size     int    `json:"size" binding:"required"`
	Password string `json:"password"`
}

func (ctl *RoomsController) list(c *gin.Context) {
	rooms, err := ctl.store.List(c.Request.Context())
	if err != nil {
		internalError(c, "Failed to list rooms")
		return
	}
	c.JSON(http.StatusOK, lo.Map(rooms, func(r domain.Room, _ int) domain.Room {
		return r.WithoutPassword()
	}))
}

func (ctl *RoomsController) get(c *gin.Context) {
	room, err := ctl.store.Get(c.Request.Context(), c.Param("uuid"))
	if errors.Is(err, store.ErrRoomNotFound) {
		badRequest(c, "Room does not exist")
		return
	}
	if err != nil {
		internalError(c, "Failed to get room")
		return
	}
	c.JSON(http.StatusOK, room.WithoutPassword())
}

func (ctl *RoomsController) create(c *gin.Context) {
	var in roomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid room data")
		return
	}
	if err := domain.ValidateRoomInput(in.Name, in.Size, in.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	room := &domain.Room{
		Name:    in.Name,
		Size:    in.Size,
		UUID:    uuid.NewString(),
		Owner:   c.GetString(ctxUserKey),
		Members: []string{},
	}

	if in.Password != "" {
		hashed, err := ctl.verifier.Hash(in.Password)
		if err != nil {
			internalError(c, "Failed to create room")
			return
		}
		room.Password = hashed
	}

	question, err := ctl.judge.RandomQuestion(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("question fetch failed")
		badRequest(c, "Failed to get question")
		return
	}
	room.Question = &domain.QuestionMeta{ID: question.ID, TitleSlug: question.TitleSlug}

	if err := ctl.store.Put(c.Request.Context(), room); err != nil {
		internalError(c, "Failed to create room")
		return
	}
	c.JSON(http.StatusCreated, room.WithoutPassword())
}

func (ctl *RoomsController) patch(c *gin.Context) {
	room, err := ctl.store.Get(c.Request.Context(), c.Param("uuid"))
	if errors.Is(err, store.ErrRoomNotFound) {
		badRequest(c, "Room does not exist")
		return
	}
	if err != nil {
		internalError(c, "Failed to get room")
		return
	}
	if room.Owner != c.GetString(ctxUserKey) {
		badRequest(c, "You are not the owner of this room")
		return
	}

	var in roomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid room data")
		return
	}
	if err := domain.ValidateRoomInput(in.Name, in.Size, in.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	room.Name = in.Name
	room.Size = in.Size
	if in.Password != "" {
		hashed, err := ctl.verifier.Hash(in.Password)
		if err != nil {
			internalError(c, "Failed to update room")
			return
		}
		room.Password = hashed
	}

	if err := ctl.store.Put(c.Request.Context(), room); err != nil {
		internalError(c, "Failed to update room")
		return
	}
	c.JSON(http.StatusOK, room.WithoutPassword())
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

func internalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}
