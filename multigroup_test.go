/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package cothread

import (
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Groups are independent roots: several of them, each driven by its own
// thread of control, must coexist without coordination.
func TestGroupsCoexist(t *testing.T) {
	var eg errgroup.Group
	for i := 0; i < 4; i++ {
		eg.Go(func() error {
			main := NewGroup(-1, -1)
			defer main.DestroyGroup()

			adder := main.Spawn(func(me *Cothread, arg Data) {
				var sum int
				for {
					sum += arg.Int()
					arg = me.Yield(WrapInt(sum))
				}
			}, false)

			want := 0
			for i := 1; i <= 64; i++ {
				want += i
				got, err := main.Send(adder, WrapInt(i))
				if err != nil {
					return err
				}
				if got.Int() != want {
					return errors.Errorf("partial sum: got %d, want %d", got.Int(), want)
				}
			}
			adder.Destroy()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
}
