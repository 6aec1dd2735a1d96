// Package relay is the WebSocket adapter of the room relay: it upgrades
// connections scoped to a room code and runs one session per connection.
package relay

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/cowatch/internal/app"
	"github.com/dkeye/cowatch/internal/config"
	"github.com/dkeye/cowatch/internal/core"
	"github.com/dkeye/cowatch/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Groups   *app.GroupManager
	Presence core.PresenceStore
	Cfg      *config.Config
}

func NewController(groups *app.GroupManager, presence core.PresenceStore, cfg *config.Config) *Controller {
	return &Controller{Groups: groups, Presence: presence, Cfg: cfg}
}

// wsConn wraps one gorilla connection behind the RelayConnection
// contract: non-blocking sends into a bounded buffer, idempotent close.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleRoom bootstraps a session for GET /ws/room/:code/. The code is
// taken verbatim; whether it names a stored room is checked only by the
// join-by-code REST flow, never here.
func (ctl *Controller) HandleRoom(ctx context.Context, c *gin.Context) {
	code := domain.RoomCode(c.Param("code"))
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "relay").Str("room", string(code)).Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	sess := newSession(ctl, sid, code, conn)

	// Registered before join: the session receives broadcasts from the
	// moment it is open, announced or not.
	ctl.Groups.Register(code, sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	sess.cancel = cancel
	// The http server never closes hijacked conns on shutdown; closing
	// here unblocks the read pump as soon as the server ctx is done.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go sess.writePump(ctx)
	go sess.readPump(ctx)
}
