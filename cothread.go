/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package cothread

import (
	"fmt"
	"runtime"

	"github.com/crzlab/cothread/cmn/debug"
	"github.com/crzlab/cothread/internal/frame"
	"github.com/crzlab/cothread/memstk"
	"github.com/teris-io/shortid"
	"k8s.io/klog/v2"
)

const (
	KiB = 1 << 10
	MiB = 1 << 20
)

const (
	lwtStkCap  = 10 * KiB      // dedicated stack of a light-weight cothread
	ctlStkCap  = 4 * KiB       // per-group control stack
	hostStkCap = 4 * KiB       // stand-in for the external caller's stack (main)
	initStkCap = frame.Bytes   // suspended frame of a newborn cothread

	minStkNum = 4
	maxStkNum = 16
	minStkCap = 2 * MiB
	maxStkCap = 10 * MiB

	freqUpdatePeriod = 100 // scheduling ticks between frequency agings
	minFreqThreshold = 20  // placement weight above which a new stack is grown
)

// Cothread is one cooperative activity. The zero value is not usable; all
// cothreads are made by NewGroup (the main cothread) or Spawn.
//
// A heavy cothread's stack addresses point into its run stack's shared
// region; while suspended and not resident there, its live bytes sit in the
// private buffer. A light-weight cothread (stk == nil) keeps a small
// dedicated region and never participates in the multiplexing; the main
// cothread is light-weight with a region standing in for the host stack.
type Cothread struct {
	id  string
	grp *group
	stk *costack // nil iff light-weight

	pvt memstk.Buffer  // heavy: backup store for the suspended live bytes
	lws *memstk.Region // light-weight: the dedicated stack itself

	stkBot uintptr // high end of this cothread's stack
	stkSP  uintptr // saved stack pointer at the last suspension
	spRun  uintptr // stack pointer while running (suspended frame consumed)

	entry  Entry
	state  State
	sender *Cothread // blocked on us via send, if any
	msg    Data

	// execution transfer
	gate     chan struct{} // resume token, capacity 1
	done     chan struct{} // closed when the goroutine has terminated
	started  bool
	poisoned bool

	backupSum uint64 // debug builds: xxhash of the last backup
}

func makeCothread(g *group, lightWeight bool) *Cothread {
	t := &Cothread{
		id:   shortid.MustGenerate(),
		grp:  g,
		gate: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	if lightWeight {
		t.lws = mustRegion(memstk.NewRegion(lwtStkCap))
	} else {
		t.pvt.Resize(initStkCap)
	}
	return t
}

func (t *Cothread) isLightWeight() bool { return t.stk == nil }

func (t *Cothread) isMain() bool { return t == t.grp.main }

func (t *Cothread) String() string {
	if t == nil {
		return "cothread[<nil>]"
	}
	return fmt.Sprintf("cothread[%s: %s]", t.id, t.state)
}

// primeFirstRun lays the trampoline frame a newborn cothread is resumed
// through. For a light-weight cothread the frame goes at the top of its
// dedicated stack; for a heavy one it goes into the backup buffer, to be
// loaded into the shared region by the first placement.
func (t *Cothread) primeFirstRun() {
	if t.isLightWeight() {
		frame.Put(t.lws.Span(t.stkSP, frame.Bytes), trampolineAddr())
		return
	}
	frame.Put(t.pvt.Bytes(), trampolineAddr())
	if debug.ON {
		t.backupSum = backupChecksum(t.pvt.Bytes())
	}
}

// startExec is the first and outermost function of every spawned cothread.
func (t *Cothread) startExec() {
	defer close(t.done)
	t.beActive()
	t.entry(t, t.msg)
	t.Exit()
}

// beActive marks the cothread running and advances the group clock. Called on
// every transition into the running state.
func (t *Cothread) beActive() {
	t.state = Running
	t.grp.incrTime()
	if debug.ON {
		t.grp.checkInvariants()
	}
}

// park blocks until a partner posts our resume token, then re-establishes the
// running stack pointer. A poisoned wake means the cothread was destroyed
// while suspended: terminate instead of resuming user code.
func (t *Cothread) park() {
	<-t.gate
	if t.poisoned {
		runtime.Goexit()
	}
	t.spRun = t.stkSP + frame.Bytes
}

func (t *Cothread) unpark() {
	t.gate <- struct{}{}
}

// reap tears down the cothread's execution and memory. The goroutine, if one
// was ever started, is either already gone (exited) or woken poisoned and
// waited out; either way no goroutine outlives the reap.
func (t *Cothread) reap() {
	if t.started {
		if t.state != Exited {
			t.poisoned = true
			t.unpark()
		}
		<-t.done
	}
	if t.lws != nil {
		t.lws.Free()
		t.lws = nil
	}
	t.pvt.Free()
	klog.V(4).Infof("reaped %s", t.id)
}

func (t *Cothread) mustBeCurrent() {
	if t.state != Running {
		fatalf("%s: caller is not the running cothread of its group", t)
	}
}
