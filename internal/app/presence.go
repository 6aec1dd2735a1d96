package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/cowatch/internal/core"
	"github.com/dkeye/cowatch/internal/domain"
)

type presenceRoom struct {
	names   map[string]struct{}
	touched time.Time
}

// MemoryPresence is the single-process PresenceStore. One mutex guards
// all rooms, so every room's mutations are linearizable. Rooms idle
// longer than ttl are swept by Run; expiry is advisory cleanup only.
type MemoryPresence struct {
	mu    sync.Mutex
	rooms map[domain.RoomCode]*presenceRoom
	ttl   time.Duration
}

func NewMemoryPresence(ttl time.Duration) *MemoryPresence {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryPresence{
		rooms: make(map[domain.RoomCode]*presenceRoom),
		ttl:   ttl,
	}
}

func (p *MemoryPresence) AddMember(_ context.Context, code domain.RoomCode, username string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	room, ok := p.rooms[code]
	if !ok {
		room = &presenceRoom{names: make(map[string]struct{})}
		p.rooms[code] = room
	}
	room.names[username] = struct{}{}
	room.touched = time.Now()
	return len(room.names), nil
}

func (p *MemoryPresence) RemoveMember(_ context.Context, code domain.RoomCode, username string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	room, ok := p.rooms[code]
	if !ok {
		return 0, nil
	}
	delete(room.names, username)
	if len(room.names) == 0 {
		delete(p.rooms, code)
		return 0, nil
	}
	room.touched = time.Now()
	return len(room.names), nil
}

func (p *MemoryPresence) Count(_ context.Context, code domain.RoomCode) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if room, ok := p.rooms[code]; ok {
		return len(room.names), nil
	}
	return 0, nil
}

// Run sweeps abandoned rooms until ctx is done.
func (p *MemoryPresence) Run(ctx context.Context) {
	t := time.NewTicker(p.ttl / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.sweep(time.Now())
		}
	}
}

func (p *MemoryPresence) sweep(now time.Time) {
	cutoff := now.Add(-p.ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	for code, room := range p.rooms {
		if room.touched.Before(cutoff) {
			delete(p.rooms, code)
			log.Info().Str("module", "app.presence").Str("room", string(code)).Msg("swept idle presence entry")
		}
	}
}

var _ core.PresenceStore = (*MemoryPresence)(nil)
