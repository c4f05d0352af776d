package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"coderoom/internal/app"
	"coderoom/internal/auth"
	"coderoom/internal/core"
	"coderoom/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller owns the websocket boundary: identity check, upgrade,
// admission through the hub, and the per-connection read/write pumps.
type Controller struct {
	hub      *app.Hub
	router   *app.EventRouter
	identity auth.Identity

	readLimit  int64
	sendBuffer int
}

func NewController(hub *app.Hub, router *app.EventRouter, identity auth.Identity, readLimit int64, sendBuffer int) *Controller {
	return &Controller{
		hub:        hub,
		router:     router,
		identity:   identity,
		readLimit:  readLimit,
		sendBuffer: sendBuffer,
	}
}

// HandleRoom upgrades the request and runs the connection's lifecycle.
// The room uuid comes from the URL path, the optional credential from
// the "password" header. Unauthenticated requests are refused before the
// upgrade with a plain 401.
func (ctl *Controller) HandleRoom(ctx context.Context, c *gin.Context) {
	username, err := ctl.identity.Resolve(c)
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	roomUUID := c.Param("uuid")
	password := c.GetHeader("password")

	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}
	socket.SetReadLimit(ctl.readLimit)

	transport := newWSConn(socket, ctl.sendBuffer)
	conn := core.NewConnection(core.ConnID(uuid.NewString()), username, transport)
	log.Info().Str("module", "adapters.ws").Str("conn", string(conn.ID)).Str("user", username).Str("room", roomUUID).Msg("new WS connection")

	socket.SetPongHandler(func(string) error {
		ctl.hub.Registry.MarkAlive(conn.ID)
		return nil
	})

	if err := ctl.hub.Join(ctx, conn, roomUUID, password); err != nil {
		// One structured reason, then the transport goes away. Written
		// directly since the pumps are not running yet.
		ctl.writeDirect(socket, domain.ErrorEvent(err.Error()))
		transport.Close()
		return
	}

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, transport)
	go ctl.readPump(connCtx, cancel, conn, transport)
}

func (ctl *Controller) writeDirect(socket *websocket.Conn, ev domain.WireEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_ = socket.SetWriteDeadline(time.Now().Add(writeWait))
	_ = socket.WriteMessage(websocket.TextMessage, data)
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, conn *core.Connection, c *wsConn) {
	defer func() {
		log.Info().Str("module", "adapters.ws").Str("conn", string(conn.ID)).Msg("readPump closing")
		ctl.hub.Teardown(ctx, conn)
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Str("conn", string(conn.ID)).Msg("readPump read error")
				return
			}
			ctl.router.Dispatch(conn, data)
		}
	}
}
