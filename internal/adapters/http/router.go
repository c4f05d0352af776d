package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"coderoom/internal/adapters/ws"
	"coderoom/internal/auth"
	"coderoom/internal/config"
	"coderoom/internal/judge"
	"coderoom/internal/store"
)

const ctxUserKey = "username"

// RequireUser resolves the session identity and aborts 401 when absent,
// so handlers behind it can trust the username in the gin context.
func RequireUser(identity auth.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := identity.Resolve(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Set(ctxUserKey, username)
		c.Next()
	}
}

func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	st store.RoomStore,
	verifier auth.Verifier,
	identity auth.Identity,
	judgeClient judge.JudgeClient,
	wsController *ws.Controller,
) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	sessionStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CodeRoomSession", sessionStore))

	log.Info().Str("module", "adapters.http").Msg("router setup")

	rooms := &RoomsController{store: st, verifier: verifier, judge: judgeClient}

	api := r.Group("/api", RequireUser(identity))

	api.GET("/rooms", rooms.list)
	api.GET("/rooms/:uuid", rooms.get)
	api.POST("/rooms", rooms.create)
	api.PATCH("/rooms/:uuid", rooms.patch)

	api.GET("/ws/:uuid", func(c *gin.Context) {
		wsController.HandleRoom(ctx, c)
	})

	return r
}
