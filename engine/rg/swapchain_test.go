package rg

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestChoosePresentModePrefersMailboxThenImmediateThenFifo(t *testing.T) {
	cases := []struct {
		name      string
		available []vk.PresentMode
		want      vk.PresentMode
	}{
		{"mailbox available", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}, vk.PresentModeMailbox},
		{"only immediate", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}, vk.PresentModeImmediate},
		{"neither available", []vk.PresentMode{vk.PresentModeFifo}, vk.PresentModeFifo},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := choosePresentMode(c.available); got != c.want {
				t.Fatalf("choosePresentMode(%v) = %v, want %v", c.available, got, c.want)
			}
		})
	}
}

func TestClampUint32(t *testing.T) {
	if got := clampUint32(5, 10, 20); got != 10 {
		t.Fatalf("expected clamp to lower bound, got %d", got)
	}
	if got := clampUint32(25, 10, 20); got != 20 {
		t.Fatalf("expected clamp to upper bound, got %d", got)
	}
	if got := clampUint32(15, 10, 20); got != 15 {
		t.Fatalf("expected value within range to pass through, got %d", got)
	}
}
