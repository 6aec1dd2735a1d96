package app

import (
	"context"
	"sync"

	"github.com/dkeye/cowatch/internal/core"
	"github.com/dkeye/cowatch/internal/domain"
)

// MemoryRooms is the single-process RoomStore. Records live for the
// process lifetime; the redis backend is the one with expiry.
type MemoryRooms struct {
	mu     sync.RWMutex
	byCode map[domain.RoomCode]domain.RoomMeta
}

func NewMemoryRooms() *MemoryRooms {
	return &MemoryRooms{byCode: make(map[domain.RoomCode]domain.RoomMeta)}
}

func (s *MemoryRooms) Create(_ context.Context, meta *domain.RoomMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byCode[meta.Code] = *meta
	return nil
}

func (s *MemoryRooms) GetByCode(_ context.Context, code domain.RoomCode) (*domain.RoomMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if meta, ok := s.byCode[code]; ok {
		return &meta, nil
	}
	return nil, nil
}

func (s *MemoryRooms) ListByOwner(_ context.Context, ownerToken string) ([]domain.RoomMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RoomMeta, 0)
	for _, meta := range s.byCode {
		if meta.OwnerToken == ownerToken {
			out = append(out, meta)
		}
	}
	return out, nil
}

func (s *MemoryRooms) Delete(_ context.Context, code domain.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byCode, code)
	return nil
}

var _ core.RoomStore = (*MemoryRooms)(nil)
