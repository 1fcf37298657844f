/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package cothread

import (
	"math"

	"github.com/crzlab/cothread/cmn/debug"
	"github.com/crzlab/cothread/memstk"
	"github.com/crzlab/cothread/stats"
	"github.com/teris-io/shortid"
	"k8s.io/klog/v2"
)

// group is the scheduling domain: all cothreads, the run-stack pool, the
// control stack, and the main cothread representing the external caller. A
// group belongs to the thread of control that created it; the runtime takes
// no locks.
type group struct {
	id string

	stks   []*costack
	stkCap int // region capacity of every run stack in this group

	thds []*Cothread // all but main

	main *Cothread

	// ctrl hosts the backup/restore routine during cross-stack switches and
	// nothing else.
	ctrl *memstk.Region

	time    int // logical clock, driving frequency aging
	metrics *stats.GroupMetrics
}

func newGroup(num, cap int) *group {
	g := &group{
		id:     shortid.MustGenerate(),
		stkCap: cap,
	}
	g.metrics = stats.NewGroupMetrics(g.id)
	g.ctrl = mustRegion(memstk.NewRegion(ctlStkCap))
	for i := 0; i < num; i++ {
		g.addStk(newCostack(g, mustRegion(memstk.NewRegion(cap))))
	}

	main := &Cothread{
		id:    shortid.MustGenerate(),
		grp:   g,
		state: Running,
		gate:  make(chan struct{}, 1),
	}
	main.lws = mustRegion(memstk.NewRegion(hostStkCap))
	main.stkBot = main.lws.End()
	main.stkSP = main.stkBot - initStkCap
	main.spRun = main.stkBot
	g.main = main

	klog.V(2).Infof("group %s: %d run stacks of %d bytes", g.id, num, cap)
	return g
}

// free tears the group down: cothreads first, then the run stacks, then the
// control stack and the main cothread's frame region.
func (g *group) free() {
	for _, t := range g.thds {
		t.reap()
	}
	g.thds = nil
	for _, s := range g.stks {
		s.region.Free()
	}
	g.stks = nil
	g.ctrl.Free()
	g.main.lws.Free()
	klog.V(2).Infof("group %s destroyed", g.id)
}

func (g *group) addStk(s *costack) {
	g.stks = append(g.stks, s)
	g.metrics.Stacks.Inc()
}

// addThd links t into the group. Heavy cothreads get a run stack from
// placement; light-weight ones point their stack into the dedicated region.
func (g *group) addThd(t *Cothread, lightWeight bool) {
	g.thds = append(g.thds, t)
	g.metrics.Cothreads.Inc()

	if !lightWeight {
		g.findStk().addThd(t)
		return
	}
	t.stkBot = t.lws.End()
	t.stkSP = t.stkBot - initStkCap
}

func (g *group) removeThd(t *Cothread) {
	debug.Assert(t.grp == g)
	for i, m := range g.thds {
		if m == t {
			g.thds = append(g.thds[:i], g.thds[i+1:]...)
			g.metrics.Cothreads.Dec()
			if !t.isLightWeight() {
				t.stk.removeThd(t)
			}
			return
		}
	}
	fatalf("%s: not a member of its group", t)
}

// findStk picks the run stack for a new heavy cothread: the one with the
// smallest weight (decayed swap frequency plus member count, first scanned
// breaks ties). When even the best is too hot and the pool has headroom, a
// fresh run stack is grown instead.
func (g *group) findStk() *costack {
	var (
		best  *costack
		minWt = math.MaxInt
	)
	for _, s := range g.stks {
		if wt := s.swapFreq() + len(s.thds); wt < minWt {
			minWt, best = wt, s
		}
	}

	if minWt > minFreqThreshold && len(g.stks) < maxStkNum {
		best = newCostack(g, mustRegion(memstk.NewRegion(g.stkCap)))
		g.addStk(best)
	}
	return best
}

// incrTime advances the logical clock; every freqUpdatePeriod ticks the
// current-epoch swap counters age into the prior-epoch slots.
func (g *group) incrTime() {
	g.time++
	g.metrics.Ticks.Inc()
	if g.time >= freqUpdatePeriod {
		g.time = 0
		for _, s := range g.stks {
			s.freq.old, s.freq.cur = s.freq.cur, 0
		}
	}
}

// checkInvariants sweeps the group's steady-state invariants (debug builds).
func (g *group) checkInvariants() {
	running := 0
	if g.main.state == Running {
		running++
	}
	for _, t := range g.thds {
		if t.state == Running {
			running++
		}
		if t.state != Exited {
			debug.Assertf(t.stkBot-t.stkSP >= initStkCap, "%s: no suspended frame", t)
		}
		if !t.isLightWeight() && !t.inStack() {
			debug.Assertf(t.pvt.Cap() == int(t.stkBot-t.stkSP),
				"%s: backup out of step with live span", t)
		}
		if t.sender != nil {
			// the sender is Running only inside the window where its send is
			// returning and the link is about to be cleared
			debug.Assertf(t.sender.state == Sending || t.sender.state == Running,
				"%s: sender %s not sending", t, t.sender)
		}
	}
	debug.Assertf(running == 1, "group %s: %d running cothreads", g.id, running)

	for _, s := range g.stks {
		if s.active == nil {
			continue
		}
		found := false
		for _, m := range s.thds {
			found = found || m == s.active
		}
		debug.Assert(found, "active cothread is not a member")
	}
}

func mustRegion(r *memstk.Region, err error) *memstk.Region {
	if err != nil {
		fatalf("out of stack memory: %v", err)
	}
	return r
}
