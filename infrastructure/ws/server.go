package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"studio-live/auth"
	"studio-live/contract"
	"studio-live/domain"
	"studio-live/domain/event"
	"studio-live/errors"
	"studio-live/transport"
)

// LiveOps is the slice of the orchestrator the websocket server needs.
type LiveOps interface {
	Connect(connID uuid.UUID, identity domain.Identity, sink contract.EventSink) error
	Disconnect(connID uuid.UUID)
	JoinRoom(ctx context.Context, connID uuid.UUID, room domain.RoomKey) error
	LeaveRoom(connID uuid.UUID, room domain.RoomKey)
	Submit(connID uuid.UUID, env event.Envelope) error
}

// Server terminates websocket connections. The credential arrives as an
// out-of-band "token" query parameter and is verified once, before the
// upgrade; a failed handshake creates no connection state at all.
type Server struct {
	log      *slog.Logger
	live     LiveOps
	tokens   *auth.TokenService
	connCfg  transport.Config
	upgrader websocket.Upgrader
}

func NewServer(log *slog.Logger, live LiveOps, tokens *auth.TokenService, connCfg transport.Config) *Server {
	return &Server{
		log:     log,
		live:    live,
		tokens:  tokens,
		connCfg: connCfg,
		upgrader: websocket.Upgrader{
			// Origin policy is enforced upstream by the reverse proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.HandleWS)
	return r
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	claims, err := s.tokens.Validate(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	identity := domain.Identity{UserID: claims.UserID, Admin: claims.Admin}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "error", err)
		return
	}

	var c *transport.Connection
	onMessage := func(ctx context.Context, _ uuid.UUID, raw []byte) {
		s.handleFrame(ctx, c, identity, raw)
	}
	onClose := func(connID uuid.UUID, cause error) {
		s.live.Disconnect(connID)
		s.log.Info("Client disconnected", "conn_id", connID, "user_id", identity.UserID)
	}
	c = transport.NewConnection(conn, s.connCfg, onMessage, onClose, s.log)

	sink := NewLiveSink(c, s.log)
	if err := s.live.Connect(c.ID(), identity, sink); err != nil {
		s.log.Warn("Connection refused", "user_id", identity.UserID, "error", err)
		c.Close(err)
		return
	}

	s.log.Info("Client connected", "conn_id", c.ID(), "user_id", identity.UserID)
	c.Run(r.Context())
}

func (s *Server) handleFrame(ctx context.Context, c *transport.Connection, identity domain.Identity, raw []byte) {
	sink := NewLiveSink(c, s.log)

	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.rejectFrame(ctx, sink, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err))
		return
	}

	switch frame.Type {
	case frameJoin:
		room, err := domain.ParseRoomKey(frame.Room)
		if err != nil {
			s.rejectFrame(ctx, sink, err)
			return
		}
		if err := s.live.JoinRoom(ctx, c.ID(), room); err != nil {
			s.rejectFrame(ctx, sink, err)
			return
		}
		_ = c.Push(AckFrame{Type: frameJoined, Room: room.String()})

	case frameLeave:
		room, err := domain.ParseRoomKey(frame.Room)
		if err != nil {
			s.rejectFrame(ctx, sink, err)
			return
		}
		s.live.LeaveRoom(c.ID(), room)
		_ = c.Push(AckFrame{Type: frameLeft, Room: room.String()})

	case frameEvent:
		env := event.Envelope{Kind: frame.Kind, SenderID: identity.UserID}
		if frame.Room != "" {
			room, err := domain.ParseRoomKey(frame.Room)
			if err != nil {
				s.rejectFrame(ctx, sink, err)
				return
			}
			env.Room = room
		}
		payload, err := event.DecodePayload(frame.Kind, frame.Payload)
		if err != nil {
			s.rejectFrame(ctx, sink, err)
			return
		}
		env.Payload = payload
		if err := s.live.Submit(c.ID(), env); err != nil {
			s.rejectFrame(ctx, sink, err)
		}

	default:
		s.rejectFrame(ctx, sink, fmt.Errorf("%w: unknown frame type %q", errors.ErrMalformedPayload, frame.Type))
	}
}

func (s *Server) rejectFrame(ctx context.Context, sink LiveSink, cause error) {
	if err := sink.Reject(ctx, cause); err != nil {
		s.log.Debug("Failed to deliver frame rejection", "error", err)
	}
}
