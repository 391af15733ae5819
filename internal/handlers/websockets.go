package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"nas_control/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
)

// Envelope types.
const (
	wsTypeSession = "session"
	wsTypeResult  = "result"
	wsTypeError   = "error"

	wsCmdStart       = "start"
	wsCmdStop        = "stop"
	wsCmdClearAction = "clear-action"

	errUnknownCommand = "unknown command"
	errBadCommand     = "invalid command: "
)

// wsEnvelope frames every message exchanged over /ws.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// wsCommand is a client message such as {"type":"start"}.
type wsCommand struct {
	Type string `json:"type"`
	err  error
}

// The control page may be served from another origin than the API.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Session stream
// @Description  Pushes {"type":"session","data":Snapshot} every interval (default 1s, max 10s).
// @Description  Accepts {"type":"start"|"stop"|"clear-action"} and answers with {"type":"result"}.
// @Tags         session
// @Param        interval     query  string  false  "Go duration, e.g. 500ms"
// @Param        interval_ms  query  int     false  "Milliseconds"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)
	ctx := c.Request.Context()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Only this goroutine writes; the reader hands commands over.
	done := make(chan struct{})
	quit := make(chan struct{})
	cmds := make(chan wsCommand)
	defer close(quit)
	go h.startReader(conn, cmds, quit, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	if err := h.sendSession(conn); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case cmd := <-cmds:
			if err := h.write(conn, h.execCommand(ctx, cmd)); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendSession(conn); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// startReader decodes client commands until the connection closes or quit is closed.
func (h *Handler) startReader(conn *websocket.Conn, cmds chan<- wsCommand, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			cmd = wsCommand{err: err}
		}
		select {
		case cmds <- cmd:
		case <-quit:
			return
		}
	}
}

// execCommand runs one client command and builds the reply.
func (h *Handler) execCommand(ctx context.Context, cmd wsCommand) wsEnvelope {
	if cmd.err != nil {
		return wsEnvelope{Type: wsTypeError, Error: errBadCommand + cmd.err.Error()}
	}

	var res models.Result
	switch cmd.Type {
	case wsCmdStart:
		res = h.services.Device.InvokeAction(ctx, models.ActionStart)
	case wsCmdStop:
		res = h.services.Device.InvokeAction(ctx, models.ActionStop)
	case wsCmdClearAction:
		res = h.services.Device.ClearAction(ctx)
	default:
		return wsEnvelope{Type: wsTypeError, Error: errUnknownCommand}
	}
	if h.log != nil {
		h.log.Infow("ws_command", "type", cmd.Type, "success", res.Success)
	}
	return wsEnvelope{Type: wsTypeResult, Data: h.newResultResponse(res)}
}

// sendSession writes the current snapshot.
func (h *Handler) sendSession(conn *websocket.Conn) error {
	return h.write(conn, wsEnvelope{Type: wsTypeSession, Data: h.services.Monitoring.Snapshot()})
}

func (h *Handler) write(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
