// Package memstk provides the stack memory of the runtime: fixed mmap'ed
// regions for execution stacks and growable heap buffers for backup stores.
/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package memstk

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type (
	// Region is a fixed-capacity anonymous mapping. Regions never move, so a
	// uintptr into one stays valid until Free.
	Region struct {
		mem []byte
	}

	// Buffer is a growable byte store with realloc semantics; contents after
	// Resize are unspecified. Buffers are only ever addressed by offset.
	Buffer struct {
		mem []byte
	}
)

// NewRegion maps cap bytes of zeroed, read-write, private memory.
func NewRegion(cap int) (*Region, error) {
	mem, err := unix.Mmap(-1, 0, cap, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %d bytes of stack memory", cap)
	}
	return &Region{mem: mem}, nil
}

func (r *Region) Base() uintptr { return uintptr(unsafe.Pointer(&r.mem[0])) }
func (r *Region) End() uintptr  { return r.Base() + uintptr(len(r.mem)) }
func (r *Region) Cap() int      { return len(r.mem) }

func (r *Region) Contains(addr uintptr) bool {
	return addr >= r.Base() && addr < r.End()
}

// Span returns the n bytes starting at addr. addr must lie inside the region
// with n bytes of headroom; the slice panics otherwise.
func (r *Region) Span(addr uintptr, n int) []byte {
	off := addr - r.Base()
	return r.mem[off : off+uintptr(n)]
}

func (r *Region) Free() {
	if r.mem == nil {
		return
	}
	_ = unix.Munmap(r.mem)
	r.mem = nil
}

////////////
// Buffer //
////////////

// Resize reallocates the buffer to exactly n bytes.
func (b *Buffer) Resize(n int) {
	if len(b.mem) != n {
		b.mem = make([]byte, n)
	}
}

func (b *Buffer) Bytes() []byte { return b.mem }
func (b *Buffer) Cap() int      { return len(b.mem) }

func (b *Buffer) Free() { b.mem = nil }
