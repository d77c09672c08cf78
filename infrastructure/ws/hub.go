package ws

import (
	"log"
	"sync"

	"huddle/internal/metrics"
)

type roomMessage struct {
	room      string
	payload   []byte
	excludeId string
}

// MemoryHub keeps room membership in process memory. Register is synchronous:
// when it returns the session is visible to Join, so the admission sequence
// (register, then join every room) cannot race the hub. Unregister and
// broadcast flow through the run loop so delivery order within a room matches
// the order Broadcast was called; the maps themselves are mutex-guarded since
// Join/Leave run on handler goroutines.
type MemoryHub struct {
	sessions     map[string]*Session            // sessionId -> session
	rooms        map[string]map[string]*Session // room -> sessionId -> session
	sessionRooms map[string]map[string]bool     // sessionId -> room set
	mu           sync.RWMutex

	unregister chan *Session
	broadcast  chan roomMessage

	onUnregister func(s *Session)
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		sessions:     make(map[string]*Session),
		rooms:        make(map[string]map[string]*Session),
		sessionRooms: make(map[string]map[string]bool),
		unregister:   make(chan *Session),
		broadcast:    make(chan roomMessage, 256),
	}
}

func (h *MemoryHub) Run() {
	for {
		select {
		case session := <-h.unregister:
			h.mu.Lock()
			_, ok := h.sessions[session.Id]
			if ok {
				delete(h.sessions, session.Id)
				for room := range h.sessionRooms[session.Id] {
					h.removeFromRoom(session.Id, room)
				}
				delete(h.sessionRooms, session.Id)
				close(session.send)
			}
			h.mu.Unlock()

			if ok {
				metrics.ActiveSessions.Dec()
				log.Printf("session %s disconnected (user %s)", session.Id, session.UserId)
				if h.onUnregister != nil {
					// The callback may do blocking work or broadcast back
					// into the hub; keep it off the delivery loop.
					go h.onUnregister(session)
				}
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *MemoryHub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s.Id] = s
	h.sessionRooms[s.Id] = make(map[string]bool)
	h.mu.Unlock()
	metrics.ActiveSessions.Inc()
	log.Printf("session %s connected (user %s)", s.Id, s.UserId)
}

func (h *MemoryHub) Unregister(s *Session) {
	h.unregister <- s
}

func (h *MemoryHub) Join(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.Id]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Session)
	}
	h.rooms[room][s.Id] = s
	h.sessionRooms[s.Id][room] = true
}

func (h *MemoryHub) Leave(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(s.Id, room)
	if set, ok := h.sessionRooms[s.Id]; ok {
		delete(set, room)
	}
}

func (h *MemoryHub) InRoom(s *Session, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][s.Id]
	return ok
}

func (h *MemoryHub) Broadcast(room string, payload []byte, excludeId string) {
	h.broadcast <- roomMessage{room: room, payload: payload, excludeId: excludeId}
}

func (h *MemoryHub) BroadcastAll(payload []byte, excludeId string) {
	h.broadcast <- roomMessage{room: "", payload: payload, excludeId: excludeId}
}

func (h *MemoryHub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *MemoryHub) UserSessionCount(userId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.sessions {
		if s.UserId == userId {
			n++
		}
	}
	return n
}

func (h *MemoryHub) SetOnUnregister(fn func(s *Session)) {
	h.onUnregister = fn
}

// caller must hold h.mu
func (h *MemoryHub) removeFromRoom(sessionId, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, sessionId)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *MemoryHub) deliver(msg roomMessage) {
	h.mu.RLock()
	var targets []*Session
	if msg.room == "" {
		targets = make([]*Session, 0, len(h.sessions))
		for _, s := range h.sessions {
			targets = append(targets, s)
		}
	} else {
		members := h.rooms[msg.room]
		targets = make([]*Session, 0, len(members))
		for _, s := range members {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if s.Id == msg.excludeId {
			continue
		}
		if !s.Send(msg.payload) {
			log.Printf("session %s send buffer full, dropping payload", s.Id)
			continue
		}
		metrics.PayloadsDelivered.Inc()
	}
}
