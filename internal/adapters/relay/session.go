package relay

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/cowatch/internal/core"
	"github.com/dkeye/cowatch/internal/domain"
	"github.com/dkeye/cowatch/internal/protocol"
)

// session is the server-side state of one live connection. username and
// joined belong to the read loop alone; shutdown runs after it exits or
// from the bootstrap error path, guarded by once either way.
type session struct {
	ctl    *Controller
	id     core.SessionID
	code   domain.RoomCode
	conn   *wsConn
	cancel context.CancelFunc

	username string
	joined   bool
	once     sync.Once
}

func newSession(ctl *Controller, sid core.SessionID, code domain.RoomCode, conn *wsConn) *session {
	return &session{ctl: ctl, id: sid, code: code, conn: conn}
}

// handleFrame decodes and dispatches one inbound frame. A frame the
// codec rejects is logged and dropped; the session always continues.
func (s *session) handleFrame(ctx context.Context, data []byte) {
	ev, err := protocol.DecodeInbound(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "relay").Str("sid", string(s.id)).Msg("dropping frame")
		return
	}

	switch e := ev.(type) {
	case protocol.Join:
		s.handleJoin(ctx, e)
	case protocol.ChatMessage:
		s.relay(e)
	case protocol.VideoAction:
		s.relay(e)
	case protocol.Seek:
		s.relay(e)
	case protocol.VideoURLChanged:
		s.relay(e)
	}
}

// handleJoin completes (or repeats) the presence handshake. A re-join
// under a new name retires the old presence entry first, so one
// connection never counts twice.
func (s *session) handleJoin(ctx context.Context, e protocol.Join) {
	if err := domain.ValidateUsername(e.Username); err != nil {
		log.Debug().Err(err).Str("module", "relay").Str("sid", string(s.id)).Msg("dropping join")
		return
	}
	if s.joined && s.username != e.Username {
		if _, err := s.ctl.Presence.RemoveMember(ctx, s.code, s.username); err != nil {
			log.Warn().Err(err).Str("module", "relay").Str("room", string(s.code)).Msg("presence remove on re-join")
		}
	}
	s.username = e.Username
	s.joined = true

	count, err := s.ctl.Presence.AddMember(ctx, s.code, e.Username)
	if err != nil {
		// Presence faults degrade the count, never the relay.
		log.Warn().Err(err).Str("module", "relay").Str("room", string(s.code)).Msg("presence add failed, count unknown")
		count = 0
	}
	log.Info().Str("module", "relay").Str("room", string(s.code)).Str("username", e.Username).Int("online", count).Msg("user joined")

	s.relay(protocol.UserJoined{Username: e.Username, OnlineCount: count})
}

// relay encodes the event and fans it out to the whole room, the sender
// included, so every client applies the same authoritative event.
func (s *session) relay(ev protocol.Outbound) {
	frame, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("encode outbound")
		return
	}
	s.ctl.Groups.Broadcast(s.code, frame)
}

// shutdown releases everything the session holds exactly once. Sessions
// that never joined leave silently: no presence entry to retire, no
// user_left broadcast.
func (s *session) shutdown() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.ctl.Groups.Deregister(s.code, s.id)

		if s.joined {
			// The request context is gone by now; the presence store
			// still needs a live one.
			count, err := s.ctl.Presence.RemoveMember(context.Background(), s.code, s.username)
			if err != nil {
				log.Warn().Err(err).Str("module", "relay").Str("room", string(s.code)).Msg("presence remove failed, count unknown")
				count = 0
			}
			log.Info().Str("module", "relay").Str("room", string(s.code)).Str("username", s.username).Int("online", count).Msg("user left")
			s.relay(protocol.UserLeft{Username: s.username, OnlineCount: count})
		}

		s.conn.Close()
	})
}
