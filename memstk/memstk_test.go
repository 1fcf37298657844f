/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package memstk

import "testing"

func TestRegion(t *testing.T) {
	const cap = 64 * 1024
	r, err := NewRegion(cap)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Free()

	if r.Cap() != cap {
		t.Fatalf("cap: got %d, want %d", r.Cap(), cap)
	}
	if r.End()-r.Base() != uintptr(cap) {
		t.Fatal("end/base disagree with cap")
	}
	if !r.Contains(r.Base()) || !r.Contains(r.End()-1) || r.Contains(r.End()) {
		t.Fatal("containment boundaries are off")
	}

	// a span is a window into the mapping, not a copy
	addr := r.Base() + 128
	copy(r.Span(addr, 4), []byte{1, 2, 3, 4})
	again := r.Span(addr, 4)
	for i, b := range again {
		if b != byte(i+1) {
			t.Fatalf("span byte %d: got %d", i, b)
		}
	}
}

func TestRegionFreeIdempotent(t *testing.T) {
	r, err := NewRegion(4096)
	if err != nil {
		t.Fatal(err)
	}
	r.Free()
	r.Free()
}

func TestBufferResize(t *testing.T) {
	var b Buffer
	if b.Cap() != 0 {
		t.Fatal("zero buffer has capacity")
	}
	b.Resize(56)
	if b.Cap() != 56 {
		t.Fatalf("cap: got %d, want 56", b.Cap())
	}
	old := b.Bytes()
	b.Resize(56) // same size keeps the store
	if &old[0] != &b.Bytes()[0] {
		t.Fatal("same-size resize reallocated")
	}
	b.Resize(112)
	if b.Cap() != 112 {
		t.Fatalf("cap after grow: got %d, want 112", b.Cap())
	}
	b.Free()
	if b.Cap() != 0 {
		t.Fatal("freed buffer still has capacity")
	}
}
