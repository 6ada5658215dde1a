package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	service "github.com/okian/pizarra/internal/app"
	"github.com/okian/pizarra/internal/domain/drag"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/pkg/logger"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// Websocket message types.
const (
	msgSnapshot   = "snapshot"
	msgDrag       = "drag"
	msgDragResult = "drag_result"
	msgResize     = "resize"
	msgError      = "error"
)

// wsIn is a client message.
type wsIn struct {
	Type    string          `json:"type"`
	Event   drag.InputEvent `json:"event"`
	Surface model.Surface   `json:"surface"`
}

// wsOut is a server message.
type wsOut struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// wsConn serializes writes with a deadline.
type wsConn struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	timeout time.Duration
}

func (c *wsConn) send(msg wsOut) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

// handleWebsocket handles GET /sessions/{sessionID}/ws. Snapshots are pushed
// after every change; drag and resize messages are accepted.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	ctx := context.WithoutCancel(r.Context())
	c := &wsConn{conn: conn, timeout: s.writeTimeout}
	defer conn.Close()

	updates, cancel := sess.Watch()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.send(wsOut{Type: msgSnapshot, Data: sess.Snapshot()}); err != nil {
			_ = conn.Close()
			return
		}
		for snap := range updates {
			if err := c.send(wsOut{Type: msgSnapshot, Data: snap}); err != nil {
				s.log.Debug(ctx, "websocket write failed", logger.String("session_id", sess.ID()), logger.Error(err))
				_ = conn.Close()
				return
			}
		}
	}()

	s.readLoop(ctx, c, sess)
	cancel()
	<-done
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, sess *service.Session) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug(ctx, "websocket closed", logger.String("session_id", sess.ID()), logger.Error(err))
			}
			return
		}
		var in wsIn
		if err := json.Unmarshal(raw, &in); err != nil {
			_ = c.send(wsOut{Type: msgError, Data: errorResponse{Code: "bad_request", Message: err.Error()}})
			continue
		}

		switch in.Type {
		case msgDrag:
			res, err := sess.Drag(withDefaultInput(in.Event))
			if err != nil {
				_, code := classify(err)
				_ = c.send(wsOut{Type: msgError, Data: errorResponse{Code: code, Message: err.Error()}})
				continue
			}
			_ = c.send(wsOut{Type: msgDragResult, Data: res})
		case msgResize:
			if err := checkSurface(in.Surface); err != nil {
				_ = c.send(wsOut{Type: msgError, Data: errorResponse{Code: "bad_request", Message: err.Error()}})
				continue
			}
			sess.Resize(in.Surface)
		default:
			_ = c.send(wsOut{Type: msgError, Data: errorResponse{Code: "bad_request", Message: "unknown message type " + in.Type}})
		}
	}
}
