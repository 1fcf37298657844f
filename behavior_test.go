/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package cothread

import (
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Rendezvous", func() {
	var main *Cothread

	BeforeEach(func() {
		main = NewGroup(-1, -1)
	})

	AfterEach(func() {
		main.DestroyGroup()
	})

	Describe("send", func() {
		It("should deliver the first word as the entry argument", func() {
			var delivered Data
			c := main.Spawn(func(me *Cothread, arg Data) {
				delivered = arg
				me.Yield(0)
			}, false)
			_, err := main.Send(c, WrapInt(42))
			Expect(err).NotTo(HaveOccurred())
			Expect(delivered).To(Equal(WrapInt(42)))
		})

		It("should return the answered word verbatim", func() {
			c := main.Spawn(echoEntry, false)
			for _, msg := range []Data{0, 1, WrapUint(1 << 63), ^Data(0)} {
				reply, err := main.Send(c, msg)
				Expect(err).NotTo(HaveOccurred())
				Expect(reply).To(Equal(msg))
			}
		})

		It("should expose the blocked sender while servicing a request", func() {
			var observed *Cothread
			srv := main.Spawn(func(me *Cothread, arg Data) {
				observed = me.Sender()
				me.Yield(0)
			}, false)

			Expect(srv.Sender()).To(BeNil())
			_, err := main.Send(srv, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(observed).To(BeIdenticalTo(main))
			Expect(srv.Sender()).To(BeNil(), "sender must be cleared once the send returns")
		})

		It("should report a target that exits instead of answering", func() {
			c := main.Spawn(func(*Cothread, Data) {}, true)
			_, err := main.Send(c, 0)
			Expect(err).To(MatchError(ErrExited))
			Expect(c.State()).To(Equal(Exited))
		})
	})

	Describe("states", func() {
		It("should keep a spawned cothread in init until first sent to", func() {
			c := main.Spawn(echoEntry, false)
			Expect(c.State()).To(Equal(Init))
			_, err := main.Send(c, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.State()).To(Equal(Yielding))
		})

		It("should show the main cothread running between calls", func() {
			Expect(main.State()).To(Equal(Running))
			c := main.Spawn(echoEntry, true)
			_, err := main.Send(c, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(main.State()).To(Equal(Running))
		})

		It("should mark the suspended partner sending during service", func() {
			var seen State
			c := main.Spawn(func(me *Cothread, arg Data) {
				seen = me.Sender().State()
				me.Yield(0)
			}, false)
			_, err := main.Send(c, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal(Sending))
		})

		It("should distinguish a suspended replier from a suspended yielder", func() {
			y := main.Spawn(echoEntry, false)
			r := main.Spawn(func(me *Cothread, arg Data) {
				for {
					arg = me.Reply(arg)
				}
			}, false)
			_, err := main.Send(y, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = main.Send(r, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(y.State()).To(Equal(Yielding))
			Expect(r.State()).To(Equal(Replying))
		})
	})

	Describe("groups", func() {
		It("should keep members of one group together and strangers apart", func() {
			c := main.Spawn(echoEntry, false)
			Expect(main.SameGroup(c)).To(BeTrue())
			Expect(c.SameGroup(c)).To(BeTrue())

			other := NewGroup(-1, -1)
			defer other.DestroyGroup()
			Expect(main.SameGroup(other)).To(BeFalse())
		})

		It("should run light-weight and heavy cothreads interchangeably", func() {
			light := main.Spawn(echoEntry, true)
			heavy := main.Spawn(echoEntry, false)
			for i := 0; i < 8; i++ {
				reply, err := main.Send(light, WrapInt(i))
				Expect(err).NotTo(HaveOccurred())
				Expect(reply.Int()).To(Equal(i))
				reply, err = main.Send(heavy, WrapInt(i))
				Expect(err).NotTo(HaveOccurred())
				Expect(reply.Int()).To(Equal(i))
			}
		})
	})

	table.DescribeTable("word wrapping",
		func(v uint64) {
			Expect(WrapUint(v).Uint()).To(Equal(v))
		},
		table.Entry("zero", uint64(0)),
		table.Entry("small", uint64(7)),
		table.Entry("high bit", uint64(1)<<63),
		table.Entry("all bits", ^uint64(0)),
	)
})
