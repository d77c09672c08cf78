package ws

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 256

	// Inbound event budget per session. Bursty clients get a scoped error,
	// not a disconnect.
	eventsPerSecond = 20
	eventBurst      = 40
)

// Session is one authenticated live connection. A user with two open tabs
// holds two sessions with independent room memberships.
type Session struct {
	Id      string
	UserId  string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

func NewSession(userId string, conn *websocket.Conn) *Session {
	return &Session{
		Id:      uuid.New().String(),
		UserId:  userId,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), eventBurst),
	}
}

// Send enqueues a payload without blocking. Returns false when the session's
// buffer is full.
func (s *Session) Send(payload []byte) bool {
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Allow reports whether the session is within its inbound event budget.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

// ReadPump reads frames from the connection and hands them to handler.
// It unregisters the session from the hub on exit, so disconnect cleanup
// runs for both graceful and network-initiated closes.
func (s *Session) ReadPump(hub Hub, handler func(data []byte)) {
	defer func() {
		hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("session %s read error: %v", s.Id, err)
			}
			return
		}
		handler(data)
	}
}

// WritePump drains the send channel onto the connection and keeps the
// connection alive with pings. Exits when the hub closes the channel.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
