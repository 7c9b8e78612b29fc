package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceLink/internal/app/orch"
	"github.com/dkeye/VoiceLink/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

const (
	sendBuffer   = 32
	watchBuffer  = 16
	writeTimeout = 5 * time.Second
)

// SessionWSController pushes session state to a browser over a websocket and
// accepts connect/disconnect commands from it.
type SessionWSController struct {
	Orch       *orch.Orchestrator
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewSessionWSController(o *orch.Orchestrator, readLimit int64, pingPeriod time.Duration) *SessionWSController {
	return &SessionWSController{
		Orch:       o,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

type WsSessionConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsSessionConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSessionConn) Close() {
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

// HandleSession mounts the client's mapper and streams its snapshots until
// the socket closes. Closing the socket does not unmount the session.
func (ctl *SessionWSController) HandleSession(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSessionConn{
		conn: ws,
		send: make(chan []byte, sendBuffer),
	}

	w, unwatch := ctl.Orch.Watch(sid, watchBuffer)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		for st := range w.C {
			ctl.sendJSON(conn, stateMsg(st))
		}
		// the session went away under us; the client reconnects to remount
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("watch closed")
		conn.Close()
	}()
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		defer unwatch()
		ctl.readPump(ctx, sid, conn)
	}()
}
