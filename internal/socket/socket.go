// Package socket serves the realtime WebSocket endpoint. Each connection
// is attached to the notification registry, may identify itself with a
// bearer token, and may join the chat rooms of items it takes part in.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/chat"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
)

// Inbound frame types.
const (
	FrameIdentify    = "identify"
	FrameJoinRoom    = "join_room"
	FrameLeaveRoom   = "leave_room"
	FrameSendMessage = "send_message"
)

// writeTimeout bounds a single frame write so one stuck client cannot
// hold up a notification fan-out.
const writeTimeout = 10 * time.Second

// Registry is the part of notify.Registry the endpoint drives.
type Registry interface {
	Attach(c notify.Conn)
	Identify(token string, c notify.Conn) (auth.Identity, error)
	Forget(c notify.Conn)
}

// Frame is an inbound client frame.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type identifyData struct {
	Token string `json:"token"`
}

type roomData struct {
	RoomID int64 `json:"roomId"`
}

type sendMessageData struct {
	RoomID  int64  `json:"roomId"`
	Message string `json:"message"`
}

// Handler upgrades requests to WebSocket connections.
type Handler struct {
	registry Registry
	chat     *chat.Service
	origins  []string
	server   websocket.Server
}

// NewHandler creates the endpoint. If origins is empty any Origin is
// accepted.
func NewHandler(registry Registry, chatSvc *chat.Service, origins []string) *Handler {
	h := &Handler{
		registry: registry,
		chat:     chatSvc,
		origins:  origins,
	}
	h.server = websocket.Server{
		Handshake: h.handshake,
		Handler:   h.serve,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.server.ServeHTTP(w, r)
}

func (h *Handler) handshake(_ *websocket.Config, r *http.Request) error {
	if len(h.origins) == 0 {
		return nil
	}
	origin := r.Header.Get("Origin")
	if slices.Contains(h.origins, origin) {
		return nil
	}
	slog.Warn("websocket origin rejected", "origin", origin, "remote", r.RemoteAddr)
	return fmt.Errorf("origin %q not allowed", origin)
}

// conn is one client connection. Writes are serialized; reads happen
// only on the serve goroutine.
type conn struct {
	id string
	ws *websocket.Conn

	mu sync.Mutex
}

func (c *conn) ID() string { return c.id }

func (c *conn) Send(ev notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return websocket.JSON.Send(c.ws, ev)
}

// session is the per-connection state owned by the serve goroutine.
type session struct {
	ctx      context.Context
	conn     *conn
	identity *auth.Identity
}

func (h *Handler) serve(ws *websocket.Conn) {
	c := &conn{id: uuid.NewString(), ws: ws}
	remote := ws.Request().RemoteAddr

	// Drop the deadlines the HTTP server set before the upgrade.
	if err := ws.SetDeadline(time.Time{}); err != nil {
		slog.Debug("clearing websocket deadline", "conn", c.id, "error", err)
	}

	h.registry.Attach(c)
	slog.Info("websocket connected", "conn", c.id, "remote", remote)

	defer func() {
		h.registry.Forget(c)
		h.chat.Rooms().LeaveAll(c)
		ws.Close()
		slog.Info("websocket disconnected", "conn", c.id, "remote", remote)
	}()

	s := &session{ctx: ws.Request().Context(), conn: c}
	for {
		var f Frame
		err := websocket.JSON.Receive(ws, &f)
		if err != nil {
			if isDecodeError(err) {
				h.fail(s, "invalid frame")
				continue
			}
			if !errors.Is(err, io.EOF) {
				slog.Debug("websocket read failed", "conn", c.id, "error", err)
			}
			return
		}
		h.handle(s, f)
	}
}

func (h *Handler) handle(s *session, f Frame) {
	switch f.Type {
	case FrameIdentify:
		var d identifyData
		if !h.decode(s, f, &d) {
			return
		}
		id, err := h.registry.Identify(d.Token, s.conn)
		if err != nil {
			h.fail(s, "invalid token")
			return
		}
		if s.identity != nil && s.identity.UserID != id.UserID {
			h.chat.Rooms().LeaveAll(s.conn)
		}
		s.identity = &id
		slog.Info("websocket identified", "conn", s.conn.id, "user", id.UserID)

	case FrameJoinRoom:
		var d roomData
		if !h.decode(s, f, &d) || !h.requireIdentity(s) {
			return
		}
		if err := h.chat.Join(s.ctx, chat.RoomOf(d.RoomID), s.identity.UserID, s.conn); err != nil {
			h.fail(s, errorText(err))
		}

	case FrameLeaveRoom:
		var d roomData
		if !h.decode(s, f, &d) {
			return
		}
		h.chat.Rooms().Leave(chat.RoomOf(d.RoomID), s.conn)

	case FrameSendMessage:
		var d sendMessageData
		if !h.decode(s, f, &d) || !h.requireIdentity(s) {
			return
		}
		if _, err := h.chat.Post(s.ctx, chat.RoomOf(d.RoomID), *s.identity, d.Message); err != nil {
			h.fail(s, errorText(err))
		}

	default:
		h.fail(s, fmt.Sprintf("unknown frame type %q", f.Type))
	}
}

func (h *Handler) decode(s *session, f Frame, v any) bool {
	if len(f.Data) == 0 {
		h.fail(s, f.Type+": missing data")
		return false
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		h.fail(s, f.Type+": invalid data")
		return false
	}
	return true
}

func (h *Handler) requireIdentity(s *session) bool {
	if s.identity == nil {
		h.fail(s, "identify first")
		return false
	}
	return true
}

func (h *Handler) fail(s *session, msg string) {
	err := s.conn.Send(notify.Event{Type: notify.EventError, Data: notify.ErrorPayload{Error: msg}})
	if err != nil {
		slog.Debug("websocket error frame not sent", "conn", s.conn.id, "error", err)
	}
}

// errorText turns domain errors into client-facing text and hides
// storage failures.
func errorText(err error) string {
	if errors.Is(err, model.ErrPersistence) {
		slog.Error("websocket request failed", "error", err)
		return "internal error"
	}
	return err.Error()
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
