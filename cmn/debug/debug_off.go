//go:build !debug

/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package debug

const ON = false

func Assert(bool, ...any)          {}
func Assertf(bool, string, ...any) {}
func AssertNoErr(error)            {}
