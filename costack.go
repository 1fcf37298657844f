/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package cothread

import (
	"github.com/OneOfOne/xxhash"
	"github.com/crzlab/cothread/cmn/debug"
	"github.com/crzlab/cothread/memstk"
)

// costack is a shared run stack: a large fixed region hosting the live bytes
// of at most one member cothread at a time. The rest of the members keep
// their bytes in private backup buffers until placed.
type costack struct {
	grp    *group
	region *memstk.Region
	thds   []*Cothread

	// active is the member whose bytes currently occupy the region, if any.
	active *Cothread

	// decayed swap frequency: prior epoch and current epoch counts
	freq struct {
		old, cur int
	}
}

func newCostack(g *group, region *memstk.Region) *costack {
	return &costack{grp: g, region: region}
}

// bottom is the high end of the region; member stacks grow downward from it.
func (s *costack) bottom() uintptr { return s.region.End() }

// swapFreq is the decayed swap-out rate used by placement.
func (s *costack) swapFreq() int { return (s.freq.old + s.freq.cur) / 2 }

// addThd makes t a member and points its stack into the shared region.
func (s *costack) addThd(t *Cothread) {
	t.stk = s
	t.stkBot = s.bottom()
	t.stkSP = t.stkBot - initStkCap
	s.thds = append(s.thds, t)
}

func (s *costack) removeThd(t *Cothread) {
	debug.Assert(t.stk == s)
	if s.active == t {
		s.active = nil
	}
	for i, m := range s.thds {
		if m == t {
			s.thds = append(s.thds[:i], s.thds[i+1:]...)
			return
		}
	}
	debug.Assert(false, "cothread not a member of its run stack")
}

// placeThd loads t's bytes into the region, swapping out the current
// occupant first. This is the only way region ownership changes hands.
func (s *costack) placeThd(t *Cothread) {
	debug.Assert(s.active != t)
	debug.Assert(s.region.Contains(t.stkSP) && t.stkBot == s.bottom())

	if s.active != nil {
		s.freq.cur++ // a cothread is swapped out, record it
		s.grp.metrics.Swaps.Inc()
		s.active.backupStk()
	}
	t.restoreStk()
	s.active = t
}

// backupStk copies the live bytes [stkSP, stkBot) out of the shared region
// into the cothread's private buffer, growing the buffer to the exact length.
func (t *Cothread) backupStk() {
	debug.Assert(!t.isLightWeight())

	n := int(t.stkBot - t.stkSP)
	t.pvt.Resize(n)
	copy(t.pvt.Bytes(), t.stk.region.Span(t.stkSP, n))
	if debug.ON {
		t.backupSum = backupChecksum(t.pvt.Bytes())
	}
}

func backupChecksum(b []byte) uint64 { return xxhash.Checksum64(b) }

// restoreStk copies the private buffer back into the shared region at stkSP
// and releases the buffer.
func (t *Cothread) restoreStk() {
	debug.Assert(!t.isLightWeight())
	debug.Assertf(t.pvt.Cap() == int(t.stkBot-t.stkSP),
		"%s: backup is %d bytes, live span is %d", t, t.pvt.Cap(), t.stkBot-t.stkSP)
	if debug.ON {
		debug.Assert(t.backupSum == backupChecksum(t.pvt.Bytes()), "backup corrupted")
	}

	copy(t.stk.region.Span(t.stkSP, t.pvt.Cap()), t.pvt.Bytes())
	t.pvt.Free()
}

// inStack reports whether the (heavy) cothread's bytes occupy its run stack.
func (t *Cothread) inStack() bool {
	debug.Assert(!t.isLightWeight())
	return t.stk.active == t
}
