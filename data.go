// Package cothread is a cooperative multitasking runtime: many cothreads
// scheduled on one logical thread of control, communicating by synchronous
// message passing. Cothreads do not own a full stack at rest; a small pool of
// large shared run stacks is multiplexed across them, with suspended stack
// contents backed up into compact private buffers. Light-weight cothreads opt
// out of the multiplexing and keep a small dedicated stack instead.
/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package cothread

// Data is the message payload of a rendezvous: one opaque machine word.
// Applications wrap small integers or handles of their choosing.
type Data uint64

func WrapInt(v int) Data     { return Data(v) }
func WrapUint(v uint64) Data { return Data(v) }

func (d Data) Int() int     { return int(d) }
func (d Data) Uint() uint64 { return uint64(d) }

// Entry is a cothread body. It receives the cothread's own handle and the
// word delivered by the first send. Returning from the entry exits the
// cothread.
type Entry func(me *Cothread, arg Data)

// State of a cothread. Exactly one cothread per group is Running at any time.
type State int

const (
	Init State = iota
	Running
	Sending
	Replying
	Yielding
	Exited
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Running:
		return "running"
	case Sending:
		return "sending"
	case Replying:
		return "replying"
	case Yielding:
		return "yielding"
	case Exited:
		return "exited"
	}
	return "invalid"
}
