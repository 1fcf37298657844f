/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package cothread

import (
	"runtime"

	"github.com/crzlab/cothread/cmn/debug"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"
)

// ErrExited is returned by Send when the target has already exited, or exits
// without replying.
var ErrExited = errors.New("cothread has exited")

// fatalf terminates the process on runtime misuse. A half-switched stack
// cannot be unwound, so misuse has no recoverable surface. Swappable, which
// is how the misuse paths are tested.
var fatalf func(format string, args ...any) = klog.Fatalf

// NewGroup creates a scheduling group with num shared run stacks of cap bytes
// each (both clamped to the supported range; pass -1 for the defaults) and
// returns its main cothread — the handle under which the external caller
// takes part in rendezvous.
func NewGroup(num, cap int) *Cothread {
	num = min(max(num, minStkNum), maxStkNum)
	cap = min(max(cap, minStkCap), maxStkCap)
	return newGroup(num, cap).main
}

// DestroyGroup tears down the whole group: every cothread, the run stacks,
// then the control stack. Only the group's main cothread may call it, and
// only while it alone is running.
func (me *Cothread) DestroyGroup() {
	me.mustBeCurrent()
	if !me.isMain() {
		fatalf("%s: only the main cothread can destroy the group", me)
	}
	for _, t := range me.grp.thds {
		debug.Assertf(t.state != Running, "%s: running while the group is destroyed", t)
	}
	me.grp.free()
}

// Spawn creates a cothread running entry once first sent to. A light-weight
// cothread trades memory for switch latency: it keeps a small dedicated stack
// and never pays the backup/restore copy.
func (me *Cothread) Spawn(entry Entry, lightWeight bool) *Cothread {
	me.mustBeCurrent()

	g := me.grp
	t := makeCothread(g, lightWeight)
	g.addThd(t, lightWeight)
	t.primeFirstRun()
	t.state = Init
	t.entry = entry
	klog.V(4).Infof("group %s: spawned %s (light-weight=%v)", g.id, t.id, lightWeight)
	return t
}

// Destroy frees the cothread. The target must not be running; a suspended
// target's execution is terminated, an exited one is simply reclaimed.
func (t *Cothread) Destroy() {
	if t.state == Running {
		fatalf("%s: destroy a running cothread", t)
	}
	if t.isMain() {
		fatalf("%s: the main cothread is destroyed with its group", t)
	}
	t.grp.removeThd(t)
	t.reap()
}

// Send delivers msg to her and blocks until she yields, replies, or exits.
// The word she passes back is returned; ErrExited reports a target that has
// already exited or exits instead of answering.
func (me *Cothread) Send(her *Cothread, msg Data) (Data, error) {
	me.mustBeCurrent()
	if her.state == Exited {
		return 0, ErrExited
	}
	if her.grp != me.grp {
		fatalf("%s: send to %s of another group", me, her)
	}
	if her.state == Sending {
		fatalf("%s: send to a sending cothread %s", me, her)
	}
	if her.state == Running {
		fatalf("%s: send to self", me)
	}

	her.msg = msg
	her.sender = me
	me.state = Sending
	me.switchThd(her)
	me.beActive()
	her.sender = nil
	if her.state == Exited {
		return 0, ErrExited
	}
	return me.msg, nil
}

// Yield hands msg back to the sender and blocks until the next send arrives.
func (me *Cothread) Yield(msg Data) Data { return me.answer(msg, Yielding) }

// Reply is Yield under a different state marker, so a suspended replier and a
// suspended yielder are distinguishable by State.
func (me *Cothread) Reply(msg Data) Data { return me.answer(msg, Replying) }

func (me *Cothread) answer(msg Data, marker State) Data {
	me.mustBeCurrent()
	if me.sender == nil {
		fatalf("%s: there is no sender", me)
	}

	her := me.sender

	her.msg = msg
	me.state = marker
	me.switchThd(her)
	me.beActive()
	return me.msg
}

// Exit terminates the cothread, waking its sender with the closed indication.
// It does not return.
func (me *Cothread) Exit() {
	me.mustBeCurrent()
	if me.sender == nil {
		fatalf("%s: exit with no sender", me)
	}

	her := me.sender

	me.state = Exited
	me.handoff(her)
	runtime.Goexit()
}

// State reports the cothread's current state.
func (t *Cothread) State() State { return t.state }

// Sender reports the cothread blocked on t via Send, if any.
func (t *Cothread) Sender() *Cothread { return t.sender }

// SameGroup reports whether both cothreads belong to one scheduling group.
func (t *Cothread) SameGroup(o *Cothread) bool { return t.grp == o.grp }

// Gatherer exposes the owning group's runtime counters.
func (t *Cothread) Gatherer() prometheus.Gatherer { return t.grp.metrics.Gatherer() }
