package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/cowatch/internal/domain"
)

// Group is the live member set of one room. It is threadsafe and never
// closes adapter-owned connections.
type Group struct {
	code domain.RoomCode

	mu    sync.RWMutex
	bySID map[SessionID]RelayConnection
}

func NewGroup(code domain.RoomCode) *Group {
	return &Group{
		code:  code,
		bySID: make(map[SessionID]RelayConnection),
	}
}

func (g *Group) Code() domain.RoomCode { return g.code }

func (g *Group) MemberCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.bySID)
}

// Register adds the session. Re-registering the same SessionID replaces
// the entry, so a session is never delivered to twice.
func (g *Group) Register(sid SessionID, conn RelayConnection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bySID[sid] = conn
	log.Info().Str("module", "core.group").Str("room", string(g.code)).Str("sid", string(sid)).Msg("session registered")
}

// Deregister removes the session and returns the remaining member count.
// Removing an unknown session is a no-op.
func (g *Group) Deregister(sid SessionID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.bySID, sid)
	log.Info().Str("module", "core.group").Str("room", string(g.code)).Str("sid", string(sid)).Msg("session deregistered")
	return len(g.bySID)
}

// Broadcast delivers the frame to every registered session, the sender
// included. Delivery is best-effort per recipient: a full send buffer or
// a connection mid-teardown is skipped, never an error to the caller.
func (g *Group) Broadcast(data Frame) PublishResult {
	return g.BroadcastExcept("", data)
}

// BroadcastExcept is Broadcast skipping one SessionID. The empty
// SessionID matches nobody.
func (g *Group) BroadcastExcept(from SessionID, data Frame) PublishResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res := PublishResult{}
	for sid, conn := range g.bySID {
		if from != "" && sid == from {
			continue
		}
		if err := conn.TrySend(data); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.group").Str("room", string(g.code)).Int("sent_to", res.SentTo).Int("dropped", res.Dropped).Msg("broadcast result")
	return res
}
