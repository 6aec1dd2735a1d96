package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/cowatch/internal/core"
)

// fakeConn records delivered frames; full simulates a saturated buffer.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestGroupManagerGetOrCreate(t *testing.T) {
	m := NewGroupManager()
	a := m.GetOrCreate("abc123")
	b := m.GetOrCreate("abc123")
	if a != b {
		t.Fatal("same code produced two groups")
	}
	if a.Code() != "abc123" {
		t.Fatalf("group code = %q", a.Code())
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	m := NewGroupManager()
	g := m.GetOrCreate("abc123")
	conn := &fakeConn{}

	g.Register("s1", conn)
	g.Register("s1", conn)
	if g.MemberCount() != 1 {
		t.Fatalf("member count = %d", g.MemberCount())
	}

	g.Broadcast(core.Frame(`{"type":"chat_message"}`))
	if got := conn.received(); got != 1 {
		t.Fatalf("double-registered session got %d deliveries", got)
	}
}

func TestBroadcastIncludesSender(t *testing.T) {
	m := NewGroupManager()
	g := m.GetOrCreate("abc123")
	sender := &fakeConn{}
	other := &fakeConn{}
	g.Register("s1", sender)
	g.Register("s2", other)

	res := g.Broadcast(core.Frame(`x`))
	if res.SentTo != 2 || res.Dropped != 0 {
		t.Fatalf("result = %+v", res)
	}
	if sender.received() != 1 || other.received() != 1 {
		t.Fatalf("deliveries: sender=%d other=%d", sender.received(), other.received())
	}
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	m := NewGroupManager()
	g := m.GetOrCreate("abc123")
	sender := &fakeConn{}
	other := &fakeConn{}
	g.Register("s1", sender)
	g.Register("s2", other)

	res := g.BroadcastExcept("s1", core.Frame(`x`))
	if res.SentTo != 1 {
		t.Fatalf("result = %+v", res)
	}
	if sender.received() != 0 || other.received() != 1 {
		t.Fatalf("deliveries: sender=%d other=%d", sender.received(), other.received())
	}
}

// A session registering while the previous occupant's prune lands must
// end up in the group the manager broadcasts to, not a stale one.
func TestRegisterAfterPruneIsNotStranded(t *testing.T) {
	m := NewGroupManager()
	m.Register("abc123", "s1", &fakeConn{})
	m.Deregister("abc123", "s1") // last member out, group pruned

	late := &fakeConn{}
	m.Register("abc123", "s2", late)

	res := m.Broadcast("abc123", core.Frame(`x`))
	if res.SentTo != 1 {
		t.Fatalf("result = %+v", res)
	}
	if late.received() != 1 {
		t.Fatalf("late session stranded: received %d broadcasts", late.received())
	}
}

func TestBroadcastIsRoomScoped(t *testing.T) {
	m := NewGroupManager()
	inRoom := &fakeConn{}
	elsewhere := &fakeConn{}
	m.Register("abc123", "s1", inRoom)
	m.Register("xyz789", "s2", elsewhere)

	m.Broadcast("abc123", core.Frame(`x`))
	if inRoom.received() != 1 {
		t.Fatalf("room member got %d deliveries", inRoom.received())
	}
	if elsewhere.received() != 0 {
		t.Fatalf("event leaked across rooms: %d deliveries", elsewhere.received())
	}
}

func TestSlowRecipientDoesNotBlockOthers(t *testing.T) {
	m := NewGroupManager()
	g := m.GetOrCreate("abc123")
	slow := &fakeConn{full: true}
	healthy := &fakeConn{}
	g.Register("s1", slow)
	g.Register("s2", healthy)

	res := g.Broadcast(core.Frame(`x`))
	if res.SentTo != 1 || res.Dropped != 1 {
		t.Fatalf("result = %+v", res)
	}
	if healthy.received() != 1 {
		t.Fatalf("healthy recipient got %d deliveries", healthy.received())
	}
}

func TestDeregisterPrunesEmptyGroup(t *testing.T) {
	m := NewGroupManager()
	m.Register("abc123", "s1", &fakeConn{})
	m.Register("abc123", "s2", &fakeConn{})

	m.Deregister("abc123", "s1")
	if _, ok := m.Get("abc123"); !ok {
		t.Fatal("group pruned while occupied")
	}
	m.Deregister("abc123", "s2")
	if _, ok := m.Get("abc123"); ok {
		t.Fatal("empty group not pruned")
	}
	if m.MemberCount("abc123") != 0 {
		t.Fatal("pruned group still counts members")
	}

	// Broadcasting into a pruned room is a quiet no-op.
	if res := m.Broadcast("abc123", core.Frame(`x`)); res.SentTo != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestListReportsOccupancy(t *testing.T) {
	m := NewGroupManager()
	m.Register("abc123", "s1", &fakeConn{})
	m.Register("abc123", "s2", &fakeConn{})
	m.Register("xyz789", "s3", &fakeConn{})

	got := map[string]int{}
	for _, info := range m.List() {
		got[string(info.Code)] = info.MemberCount
	}
	if got["abc123"] != 2 || got["xyz789"] != 1 {
		t.Fatalf("occupancy = %v", got)
	}
}
