package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryPresenceSetSemantics(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPresence(time.Hour)

	n, err := p.AddMember(ctx, "abc123", "alice")
	if err != nil || n != 1 {
		t.Fatalf("first add: n=%d err=%v", n, err)
	}
	// Same name again is a no-op on the set.
	if n, _ = p.AddMember(ctx, "abc123", "alice"); n != 1 {
		t.Fatalf("duplicate add: n=%d", n)
	}
	if n, _ = p.AddMember(ctx, "abc123", "bob"); n != 2 {
		t.Fatalf("second member: n=%d", n)
	}

	// Removing an absent name is a no-op returning the current count.
	if n, _ = p.RemoveMember(ctx, "abc123", "carol"); n != 2 {
		t.Fatalf("remove absent: n=%d", n)
	}
	if n, _ = p.RemoveMember(ctx, "abc123", "alice"); n != 1 {
		t.Fatalf("remove alice: n=%d", n)
	}
	if n, _ = p.RemoveMember(ctx, "abc123", "bob"); n != 0 {
		t.Fatalf("remove last: n=%d", n)
	}
	if n, _ = p.Count(ctx, "abc123"); n != 0 {
		t.Fatalf("count after drain: n=%d", n)
	}
	if n, _ = p.Count(ctx, "nosuch"); n != 0 {
		t.Fatalf("count unknown room: n=%d", n)
	}
}

func TestMemoryPresenceRoomsAreIndependent(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPresence(time.Hour)

	_, _ = p.AddMember(ctx, "abc123", "alice")
	_, _ = p.AddMember(ctx, "xyz789", "alice")

	if n, _ := p.RemoveMember(ctx, "abc123", "alice"); n != 0 {
		t.Fatalf("remove in abc123: n=%d", n)
	}
	if n, _ := p.Count(ctx, "xyz789"); n != 1 {
		t.Fatalf("xyz789 lost its member: n=%d", n)
	}
}

// Equal joins and leaves across many goroutines must net to zero: no
// lost updates under concurrent mutation of the same room.
func TestMemoryPresenceConcurrent(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPresence(time.Hour)

	const workers = 64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("user-%d", i)
			for j := 0; j < 50; j++ {
				if _, err := p.AddMember(ctx, "abc123", name); err != nil {
					t.Errorf("add: %v", err)
					return
				}
				if _, err := p.RemoveMember(ctx, "abc123", name); err != nil {
					t.Errorf("remove: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if n, _ := p.Count(ctx, "abc123"); n != 0 {
		t.Fatalf("leaked presence entries: n=%d", n)
	}
}

func TestMemoryPresenceSweep(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPresence(time.Hour)

	_, _ = p.AddMember(ctx, "abc123", "alice")

	// Not idle long enough yet.
	p.sweep(time.Now().Add(30 * time.Minute))
	if n, _ := p.Count(ctx, "abc123"); n != 1 {
		t.Fatalf("fresh entry swept: n=%d", n)
	}

	p.sweep(time.Now().Add(2 * time.Hour))
	if n, _ := p.Count(ctx, "abc123"); n != 0 {
		t.Fatalf("idle entry survived sweep: n=%d", n)
	}
}
