package containers

import "testing"

func TestSlotPoolExhaustion(t *testing.T) {
	p := NewSlotPool(3)

	got := []uint32{p.Allocate(), p.Allocate(), p.Allocate()}
	want := []uint32{0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("alloc %d: got %d, want %d", i, got[i], want[i])
		}
	}

	if slot := p.Allocate(); slot != InvalidSlot {
		t.Fatalf("expected InvalidSlot on exhaustion, got %d", slot)
	}

	p.Free(1)
	if slot := p.Allocate(); slot != 1 {
		t.Fatalf("expected freed slot 1 to be reused, got %d", slot)
	}

	p.Free(0)
	p.Free(2)
	if slot := p.Allocate(); slot != 2 {
		t.Fatalf("expected LIFO reuse order, got %d first", slot)
	}
	if slot := p.Allocate(); slot != 0 {
		t.Fatalf("expected LIFO reuse order, got %d second", slot)
	}
}

func TestSlotPoolLiveFreeFreshInvariant(t *testing.T) {
	p := NewSlotPool(5)
	live := map[uint32]bool{}
	for i := 0; i < 4; i++ {
		live[p.Allocate()] = true
	}
	p.Free(2)
	delete(live, 2)

	freshRemaining := p.SlotCount() - p.nextFresh
	if uint32(len(live))+p.FreeSlotCount()+freshRemaining != p.SlotCount() {
		t.Fatalf("invariant violated: live=%d free=%d fresh_remaining=%d slot_count=%d",
			len(live), p.FreeSlotCount(), freshRemaining, p.SlotCount())
	}
}
