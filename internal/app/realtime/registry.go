package realtime

import (
	"sync"

	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

// Session is one live, authenticated realtime connection. Deliver
// must not block the caller; transports buffer internally and drop
// the connection when the buffer overruns.
type Session interface {
	ID() string
	Identity() domain.Identity
	Deliver(event domain.Event)
}

type member struct {
	session Session
	rooms   map[string]struct{}
}

// Registry tracks live connections and their room memberships. It is
// safe for concurrent use; its lifetime spans handshake success to
// disconnect, and it holds no cross-process state.
type Registry struct {
	mu      sync.RWMutex
	members map[string]*member
	rooms   map[string]map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{
		members: make(map[string]*member),
		rooms:   make(map[string]map[string]Session),
	}
}

func (r *Registry) Register(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[s.ID()] = &member{session: s, rooms: make(map[string]struct{})}
}

func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[sessionID]
	if !ok {
		return
	}
	for room := range m.rooms {
		r.leaveLocked(sessionID, room)
	}
	delete(r.members, sessionID)
}

// Join adds the session to a room. Joining a room twice is a no-op.
func (r *Registry) Join(sessionID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[sessionID]
	if !ok {
		return false
	}
	m.rooms[room] = struct{}{}
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]Session)
	}
	r.rooms[room][sessionID] = m.session
	return true
}

func (r *Registry) Leave(sessionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[sessionID]; ok {
		delete(m.rooms, room)
	}
	r.leaveLocked(sessionID, room)
}

func (r *Registry) leaveLocked(sessionID, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

func (r *Registry) InRoom(sessionID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][sessionID]
	return ok
}

// Broadcast delivers the event to every current member of the room,
// once per member. Membership is snapshotted under the lock and
// delivery happens outside it so a slow session cannot stall joins.
func (r *Registry) Broadcast(room string, event domain.Event) {
	r.mu.RLock()
	sessions := make([]Session, 0, len(r.rooms[room]))
	for _, s := range r.rooms[room] {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		s.Deliver(event)
	}
}

// Stats reports live connection count and per-room occupancy for the
// diagnostics endpoint.
type Stats struct {
	Connections int            `json:"connections"`
	Rooms       map[string]int `json:"rooms"`
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := Stats{
		Connections: len(r.members),
		Rooms:       make(map[string]int, len(r.rooms)),
	}
	for room, members := range r.rooms {
		stats.Rooms[room] = len(members)
	}
	return stats
}
