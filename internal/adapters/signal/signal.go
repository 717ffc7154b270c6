package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Ringcast/internal/app"
	"github.com/dkeye/Ringcast/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	RegisterLimit  int
	RegisterWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.RegisterLimit <= 0 {
		o.RegisterLimit = 5
	}
	if o.RegisterWindow <= 0 {
		o.RegisterWindow = time.Minute
	}
	return o
}

// pongWait is how long a peer may stay silent; pings go out every 9/10 of it.
func (o Options) pongWait() time.Duration { return o.PingPeriod * 10 / 9 }

type SignalWSController struct {
	Registry *app.Registry

	opts    Options
	limiter *RegisterRateLimiter
}

func NewSignalWSController(reg *app.Registry, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	return &SignalWSController{
		Registry: reg,
		opts:     opts,
		limiter:  NewRegisterRateLimiter(opts.RegisterLimit, opts.RegisterWindow),
	}
}

type WsSignalConn struct {
	id   core.ConnectionID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
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

// HandleSignal upgrades the request and attaches the connection unbound.
// The client binds it to an identity with a register message.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		id:   core.ConnectionID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}
	log.Info().Str("module", "signal").Str("cid", string(conn.id)).Str("remote", c.ClientIP()).Msg("new WS connection")
	ctl.Registry.Attach(conn.id, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}
