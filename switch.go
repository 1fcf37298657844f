/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package cothread

import (
	"unsafe"

	"github.com/crzlab/cothread/cmn/debug"
	"github.com/crzlab/cothread/internal/frame"
	"github.com/crzlab/cothread/memstk"
)

// Context-switch engine.
//
// A suspended cothread is a frame (internal/frame) at its saved stack
// pointer. contextSwitch pushes such a frame for the side giving up control,
// publishes the new stack pointer through the caller-supplied slot, then
// reads the frame at the target stack pointer and dispatches on its
// return-address word: trampoline (first run), control-switch (run the
// backup/restore routine with the control stack current), or resume (wake the
// suspended goroutine). Execution transfer itself is goroutine park/unpark on
// single-token gates; at most one goroutine per group is ever unparked.

// Return-address anchors. Each routine a restored frame can return into gets
// a unique address; the frames written into stack memory are dispatched on
// these, so a primed frame is live data.
var (
	trampolineAnchor byte
	ctrlSwitchAnchor byte
	resumeAnchor     byte
)

func trampolineAddr() uintptr { return uintptr(unsafe.Pointer(&trampolineAnchor)) }
func ctrlSwitchAddr() uintptr { return uintptr(unsafe.Pointer(&ctrlSwitchAnchor)) }
func resumeAddr() uintptr     { return uintptr(unsafe.Pointer(&resumeAnchor)) }

// execStack names the stack the switching side is executing on.
type execStack struct {
	region *memstk.Region
	sp     uintptr
}

func (t *Cothread) execStack() execStack {
	if t.isLightWeight() {
		return execStack{t.lws, t.spRun}
	}
	debug.Assert(t.inStack())
	return execStack{t.stk.region, t.spRun}
}

// switchThd transfers control from the running cothread to her and blocks
// until control comes back.
func (me *Cothread) switchThd(her *Cothread) {
	me.handoff(her)
	me.park()
}

// handoff is the one-way half of a switch: save our frame and start her.
// If her stack bytes are not resident (heavy, displaced or newborn), the
// switch routes through the control stack so the region can be mutated from
// neutral ground.
func (me *Cothread) handoff(her *Cothread) {
	if her.isLightWeight() || her.inStack() {
		me.grp.contextSwitch(her, me.execStack(), &me.stkSP, her.stkSP)
	} else {
		me.grp.switchThds(me, her)
	}
}

// switchThds primes the control stack with a one-shot ctrlSwitch frame and
// switches to it.
func (g *group) switchThds(from, to *Cothread) {
	sp := g.ctrl.End() - frame.Bytes
	frame.Put(g.ctrl.Span(sp, frame.Bytes), ctrlSwitchAddr())
	g.contextSwitch(to, from.execStack(), &from.stkSP, sp)
}

// ctrlSwitch places the target's bytes into its run stack, then switches
// onward. It runs with the control stack current; the outgoing stack pointer
// goes to a discarded local because the control stack is never resumed.
func (g *group) ctrlSwitch(to *Cothread, ctrlSP uintptr) {
	var junk uintptr

	debug.Assert(!to.isLightWeight() && !to.inStack())

	to.stk.placeThd(to)
	g.contextSwitch(to, execStack{g.ctrl, ctrlSP + frame.Bytes}, &junk, to.stkSP)
}

// contextSwitch is the switch primitive. cur is the stack being left, from
// receives the stack pointer it is left at, to is the stack pointer being
// switched to; cth rides along unchanged so the resumed side knows itself.
// No heap allocation besides the goroutine spawned on a first run.
func (g *group) contextSwitch(cth *Cothread, cur execStack, from *uintptr, to uintptr) {
	sp := cur.sp - frame.Bytes
	frame.Put(cur.region.Span(sp, frame.Bytes), resumeAddr())
	*from = sp

	tgt := g.regionOf(cth, to)
	switch ret := frame.Ret(tgt.Span(to, frame.Bytes)); ret {
	case ctrlSwitchAddr():
		g.ctrlSwitch(cth, to)
	case trampolineAddr():
		cth.spRun = to + frame.Bytes
		cth.started = true
		go cth.startExec()
	case resumeAddr():
		cth.unpark()
	default:
		fatalf("%s: corrupt resume frame at %#x (ret %#x)", cth, to, ret)
	}
}

// regionOf resolves the stack region a stack pointer belongs to: the control
// stack, or the target cothread's current stack.
func (g *group) regionOf(cth *Cothread, sp uintptr) *memstk.Region {
	if g.ctrl.Contains(sp) {
		return g.ctrl
	}
	if cth.isLightWeight() {
		return cth.lws
	}
	return cth.stk.region
}
