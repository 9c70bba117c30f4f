// Package runtime holds the presence registry, the dispatch pipeline wiring
// and the process-wide transport handle. It orchestrates the system without
// containing business logic or domain rules.
package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"studio-live/contract"
	"studio-live/domain"
	"studio-live/errors"
)

type session struct {
	identity domain.Identity
	sink     contract.EventSink
	rooms    map[domain.RoomKey]struct{}
}

// Registry maps room keys to the live connections subscribed to them and
// users to their open connections (multi-tab, multi-device). Rooms spring
// into existence on first join and vanish on last leave; no membership
// history is retained.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	sessions    map[uuid.UUID]*session
	userConns   map[string]map[uuid.UUID]struct{}
	roomMembers map[domain.RoomKey]map[uuid.UUID]struct{}
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:         log.With(slog.String("component", "registry")),
		sessions:    make(map[uuid.UUID]*session),
		userConns:   make(map[string]map[uuid.UUID]struct{}),
		roomMembers: make(map[domain.RoomKey]map[uuid.UUID]struct{}),
	}
}

// compile-time check: the registry is the dispatcher's presence view.
var _ contract.Presence = (*Registry)(nil)

// Register records an authenticated connection and indexes it under its
// identity, making it eligible for direct notifications before any join.
func (r *Registry) Register(connID uuid.UUID, identity domain.Identity, sink contract.EventSink) error {
	if identity.IsZero() {
		return errors.ErrUnauthenticated
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[connID]; exists {
		return errors.ErrAlreadyRegistered
	}
	r.sessions[connID] = &session{
		identity: identity,
		sink:     sink,
		rooms:    make(map[domain.RoomKey]struct{}),
	}
	if _, ok := r.userConns[identity.UserID]; !ok {
		r.userConns[identity.UserID] = make(map[uuid.UUID]struct{})
	}
	r.userConns[identity.UserID][connID] = struct{}{}

	r.log.Debug("Connection registered", "conn_id", connID, "user_id", identity.UserID)
	return nil
}

// Drop removes the connection from every room it was a member of and from
// the identity index, all under one lock so a concurrent Join cannot
// resurrect it. It returns the rooms the connection was in, so the caller
// can announce the departure.
func (r *Registry) Drop(connID uuid.UUID) []domain.RoomKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	delete(r.sessions, connID)

	if conns, ok := r.userConns[sess.identity.UserID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.userConns, sess.identity.UserID)
		}
	}

	left := make([]domain.RoomKey, 0, len(sess.rooms))
	for room := range sess.rooms {
		left = append(left, room)
		r.removeFromRoom(connID, room)
	}

	r.log.Debug("Connection dropped", "conn_id", connID, "rooms", len(left))
	return left
}

// Join is idempotent: re-joining an already-joined room reports joined=false
// without error. The connection may have disconnected while the caller was
// awaiting the access-control check, hence the liveness re-validation here.
func (r *Registry) Join(connID uuid.UUID, room domain.RoomKey) (joined bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return false, fmt.Errorf("join %s: %w", room, errors.ErrConnectionGone)
	}
	if _, already := sess.rooms[room]; already {
		return false, nil
	}
	sess.rooms[room] = struct{}{}
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(map[uuid.UUID]struct{})
	}
	r.roomMembers[room][connID] = struct{}{}
	return true, nil
}

// Leave reports whether the connection actually was a member.
func (r *Registry) Leave(connID uuid.UUID, room domain.RoomKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return false
	}
	if _, member := sess.rooms[room]; !member {
		return false
	}
	delete(sess.rooms, room)
	r.removeFromRoom(connID, room)
	return true
}

// removeFromRoom deletes the membership entry and garbage-collects the room
// when its member set empties. Callers hold the write lock.
func (r *Registry) removeFromRoom(connID uuid.UUID, room domain.RoomKey) {
	members, ok := r.roomMembers[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.roomMembers, room)
	}
}

func (r *Registry) MembersOf(room domain.RoomKey) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.roomMembers[room]
	res := make([]uuid.UUID, 0, len(members))
	for id := range members {
		res = append(res, id)
	}
	return res
}

func (r *Registry) ConnectionsOf(userID string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.userConns[userID]
	res := make([]uuid.UUID, 0, len(conns))
	for id := range conns {
		res = append(res, id)
	}
	return res
}

func (r *Registry) MemberDeliveries(room domain.RoomKey) []contract.Delivery {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []contract.Delivery
	for connID := range r.roomMembers[room] {
		if sess, ok := r.sessions[connID]; ok {
			res = append(res, contract.Delivery{
				ConnID: connID,
				UserID: sess.identity.UserID,
				Sink:   sess.sink,
			})
		}
	}
	return res
}

func (r *Registry) UserDeliveries(userID string) []contract.Delivery {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []contract.Delivery
	for connID := range r.userConns[userID] {
		if sess, ok := r.sessions[connID]; ok {
			res = append(res, contract.Delivery{
				ConnID: connID,
				UserID: userID,
				Sink:   sess.sink,
			})
		}
	}
	return res
}

func (r *Registry) DeliveryOf(connID uuid.UUID) (contract.Delivery, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return contract.Delivery{}, false
	}
	return contract.Delivery{ConnID: connID, UserID: sess.identity.UserID, Sink: sess.sink}, true
}

func (r *Registry) IsMember(connID uuid.UUID, room domain.RoomKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return false
	}
	_, member := sess.rooms[room]
	return member
}

func (r *Registry) IdentityOf(connID uuid.UUID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return domain.Identity{}, false
	}
	return sess.identity, true
}

// Counts reports the live gauges for observability.
func (r *Registry) Counts() (connections, users, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), len(r.userConns), len(r.roomMembers)
}
