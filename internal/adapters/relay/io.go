package relay

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// pongWait is derived from the ping period so a missed pong expires the
// read deadline shortly after the next ping would have refreshed it.
func (s *session) pongWait() time.Duration {
	return s.ctl.Cfg.PingPeriod * 10 / 9
}

func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(s.ctl.Cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "relay").Str("sid", string(s.id)).Msg("writePump ctx done")
			return
		case data, ok := <-s.conn.send:
			if !ok {
				log.Debug().Str("module", "relay").Str("sid", string(s.id)).Msg("writePump channel closed")
				return
			}
			if err := s.conn.conn.SetWriteDeadline(time.Now().Add(s.ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "relay").Msg("writePump set deadline")
				return
			}
			if err := s.conn.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "relay").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := s.conn.conn.SetWriteDeadline(time.Now().Add(s.ctl.Cfg.WriteTimeout)); err != nil {
				return
			}
			if err := s.conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) readPump(ctx context.Context) {
	defer func() {
		log.Info().Str("module", "relay").Str("sid", string(s.id)).Msg("readPump closing")
		s.shutdown()
	}()

	s.conn.conn.SetReadLimit(s.ctl.Cfg.ReadLimit)
	_ = s.conn.conn.SetReadDeadline(time.Now().Add(s.pongWait()))
	s.conn.conn.SetPongHandler(func(string) error {
		return s.conn.conn.SetReadDeadline(time.Now().Add(s.pongWait()))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "relay").Str("sid", string(s.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := s.conn.conn.ReadMessage()
			if err != nil {
				// Transport-level close, expected; teardown follows.
				log.Debug().Err(err).Str("module", "relay").Str("sid", string(s.id)).Msg("readPump read error")
				return
			}
			s.handleFrame(ctx, data)
		}
	}
}
