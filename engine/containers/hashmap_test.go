package containers

import "testing"

func TestHashmapSetGet(t *testing.T) {
	h := NewHashmap[string]()
	h.Set(1, "a")
	h.Set(2, "b")

	if v, ok := h.Get(1); !ok || v != "a" {
		t.Fatalf("Get(1) = %q, %v; want \"a\", true", v, ok)
	}
	if _, ok := h.Get(3); ok {
		t.Fatalf("Get(3) should miss")
	}
}

func TestHashmapOverwrite(t *testing.T) {
	h := NewHashmap[int]()
	h.Set(42, 1)
	h.Set(42, 2)
	if v, _ := h.Get(42); v != 2 {
		t.Fatalf("expected overwrite to win, got %d", v)
	}
	if h.Len() != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", h.Len())
	}
}

func TestHashmapGrows(t *testing.T) {
	h := NewHashmap[int]()
	const n = 500
	for i := 1; i <= n; i++ {
		h.Set(uint64(i), i*10)
	}
	for i := 1; i <= n; i++ {
		v, ok := h.Get(uint64(i))
		if !ok || v != i*10 {
			t.Fatalf("Get(%d) = %d, %v; want %d, true", i, v, ok, i*10)
		}
	}
}

func TestHashmapZeroKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic inserting key 0")
		}
	}()
	NewHashmap[int]().Set(0, 1)
}

func TestFNV1a64KnownValue(t *testing.T) {
	// FNV-1a 64-bit hash of the empty string is the offset basis.
	if h := FNV1a64(nil); h != 14695981039346656037 {
		t.Fatalf("FNV1a64(nil) = %d, want offset basis", h)
	}
}
