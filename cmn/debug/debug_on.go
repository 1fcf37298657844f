//go:build debug

/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package debug

// ON is true in debug builds; guards checks too costly to leave always-on.
const ON = true

func Assert(cond bool, a ...any) {
	if !cond {
		if len(a) == 0 {
			failf("assertion failed")
		}
		failf("assertion failed: %v", a)
	}
}

func Assertf(cond bool, format string, args ...any) {
	if !cond {
		failf("assertion failed: "+format, args...)
	}
}

func AssertNoErr(err error) {
	if err != nil {
		failf("unexpected error: %v", err)
	}
}
