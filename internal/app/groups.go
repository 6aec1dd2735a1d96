package app

import (
	"sync"

	"github.com/dkeye/cowatch/internal/core"
	"github.com/dkeye/cowatch/internal/domain"
)

// GroupInfo is a read-only view for APIs.
type GroupInfo struct {
	Code        domain.RoomCode `json:"code"`
	MemberCount int             `json:"member_count"`
}

// GroupManager maps room codes to live groups. A group is created the
// moment the first session registers under a code and pruned when the
// last one deregisters.
type GroupManager struct {
	mu     sync.RWMutex
	groups map[domain.RoomCode]*core.Group
}

func NewGroupManager() *GroupManager {
	return &GroupManager{groups: make(map[domain.RoomCode]*core.Group)}
}

func (m *GroupManager) GetOrCreate(code domain.RoomCode) *core.Group {
	m.mu.RLock()
	g, ok := m.groups[code]
	m.mu.RUnlock()
	if ok {
		return g
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok = m.groups[code]; ok {
		return g
	}
	g = core.NewGroup(code)
	m.groups[code] = g
	return g
}

// Register adds the session under code, creating the group if absent.
// Get-or-create and the membership add happen under the manager lock,
// serialized with Deregister's prune: a session can never complete its
// registration on a group that has already been dropped from the map.
func (m *GroupManager) Register(code domain.RoomCode, sid core.SessionID, conn core.RelayConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[code]
	if !ok {
		g = core.NewGroup(code)
		m.groups[code] = g
	}
	g.Register(sid, conn)
}

func (m *GroupManager) Get(code domain.RoomCode) (*core.Group, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[code]
	return g, ok
}

// Deregister removes the session from its group and prunes the group
// entry once empty. Pruning is resource hygiene only: a later register
// under the same code just recreates the group.
func (m *GroupManager) Deregister(code domain.RoomCode, sid core.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[code]
	if !ok {
		return
	}
	if g.Deregister(sid) == 0 {
		delete(m.groups, code)
	}
}

// Broadcast fans the frame out to the group for code, if any.
func (m *GroupManager) Broadcast(code domain.RoomCode, data core.Frame) core.PublishResult {
	m.mu.RLock()
	g, ok := m.groups[code]
	m.mu.RUnlock()
	if !ok {
		return core.PublishResult{}
	}
	return g.Broadcast(data)
}

// MemberCount reports live connections under code, 0 when the group is gone.
func (m *GroupManager) MemberCount(code domain.RoomCode) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.groups[code]; ok {
		return g.MemberCount()
	}
	return 0
}

func (m *GroupManager) List() []GroupInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]GroupInfo, 0, len(m.groups))
	for code, g := range m.groups {
		out = append(out, GroupInfo{Code: code, MemberCount: g.MemberCount()})
	}
	return out
}
