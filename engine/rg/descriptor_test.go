package rg

import "testing"

func TestDescriptorPoolGrowthSequence(t *testing.T) {
	sizes := []int{descriptorPoolMinSets}
	for i := 0; i < 6; i++ {
		sizes = append(sizes, nextPoolSize(sizes[len(sizes)-1]))
	}
	want := []int{8, 16, 32, 64, 128, 128, 128}
	for i, w := range want {
		if sizes[i] != w {
			t.Fatalf("pool size %d = %d, want %d (sequence %v)", i, sizes[i], w, sizes)
		}
	}
}
