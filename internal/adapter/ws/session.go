package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/syslogsitsolutions/menulogs/internal/adapter/logger"
	"github.com/syslogsitsolutions/menulogs/internal/app/realtime"
	"github.com/syslogsitsolutions/menulogs/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// session binds one websocket connection to its identity and feeds
// events through a buffered channel so delivery never blocks the
// router. A connection that cannot drain its buffer is dropped; it
// must re-fetch state over REST after reconnecting.
type session struct {
	id       string
	identity domain.Identity
	conn     *websocket.Conn
	send     chan domain.Event
	router   *realtime.Router
	logger   logger.Logger
	once     sync.Once
}

func newSession(id string, identity domain.Identity, conn *websocket.Conn, router *realtime.Router, lgr logger.Logger) *session {
	return &session{
		id:       id,
		identity: identity,
		conn:     conn,
		send:     make(chan domain.Event, sendBuffer),
		router:   router,
		logger:   lgr,
	}
}

func (s *session) ID() string                { return s.id }
func (s *session) Identity() domain.Identity { return s.identity }

func (s *session) Deliver(event domain.Event) {
	select {
	case s.send <- event:
	default:
		s.logger.Error("slow_consumer_dropped", "Connection dropped: send buffer full", "", map[string]interface{}{
			"session_id": s.id,
		}, nil)
		s.close()
	}
}

func (s *session) close() {
	s.once.Do(func() {
		s.router.Detach(s.id)
		s.conn.Close()
	})
}

func (s *session) readPump(ctx context.Context) {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd realtime.Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.Deliver(domain.Event{
				Kind:       domain.EventError,
				OccurredAt: time.Now(),
				Payload:    domain.ErrorPayload{Code: domain.KindValidation, Message: "malformed command"},
			})
			continue
		}
		s.router.HandleCommand(ctx, s, cmd)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case event, ok := <-s.send:
			if !ok {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(event); err != nil {
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
