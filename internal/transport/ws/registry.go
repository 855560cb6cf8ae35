package ws

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrDuplicateConnection = errors.New("connection id already registered")

// Registry is the authoritative in-memory mapping between live connections,
// users and fan-out groups. It performs no authorization and no I/O; callers
// authorize before JoinGroup. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]*connEntry
	users  map[uuid.UUID]map[uuid.UUID]struct{} // userID -> connection ids
	groups map[string]map[uuid.UUID]struct{}    // group key -> connection ids
}

type connEntry struct {
	userID uuid.UUID
	groups map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]*connEntry),
		users:  make(map[uuid.UUID]map[uuid.UUID]struct{}),
		groups: make(map[string]map[uuid.UUID]struct{}),
	}
}

// Register records a new connection. A duplicate id means the transport is
// broken, so it is reported instead of silently overwritten.
func (r *Registry) Register(connID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[connID]; exists {
		return ErrDuplicateConnection
	}

	r.conns[connID] = &connEntry{userID: userID, groups: make(map[string]struct{})}
	if r.users[userID] == nil {
		r.users[userID] = make(map[uuid.UUID]struct{})
	}
	r.users[userID][connID] = struct{}{}
	return nil
}

// Unregister removes the connection from every group it joined and from its
// user's connection set. Unknown ids are a no-op.
func (r *Registry) Unregister(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.conns[connID]
	if !exists {
		return
	}

	for group := range entry.groups {
		r.dropFromGroup(group, connID)
	}

	delete(r.users[entry.userID], connID)
	if len(r.users[entry.userID]) == 0 {
		delete(r.users, entry.userID)
	}
	delete(r.conns, connID)
}

// JoinGroup subscribes a connection to a group. The caller must already have
// authorized the membership.
func (r *Registry) JoinGroup(connID uuid.UUID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.conns[connID]
	if !exists {
		return
	}

	entry.groups[group] = struct{}{}
	if r.groups[group] == nil {
		r.groups[group] = make(map[uuid.UUID]struct{})
	}
	r.groups[group][connID] = struct{}{}
}

// LeaveGroup is idempotent; leaving an absent pair is a no-op.
func (r *Registry) LeaveGroup(connID uuid.UUID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.conns[connID]; exists {
		delete(entry.groups, group)
	}
	r.dropFromGroup(group, connID)
}

// ConnectionsForUser returns a snapshot of the user's live connection ids.
func (r *Registry) ConnectionsForUser(userID uuid.UUID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.users[userID])
}

// ConnectionsForGroup returns a snapshot of the group's connection ids.
func (r *Registry) ConnectionsForGroup(group string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.groups[group])
}

// UserFor reports which user a connection belongs to.
func (r *Registry) UserFor(connID uuid.UUID) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.conns[connID]
	if !exists {
		return uuid.Nil, false
	}
	return entry.userID, true
}

func (r *Registry) dropFromGroup(group string, connID uuid.UUID) {
	members := r.groups[group]
	delete(members, connID)
	if len(members) == 0 {
		delete(r.groups, group)
	}
}

func snapshot(set map[uuid.UUID]struct{}) []uuid.UUID {
	if len(set) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
