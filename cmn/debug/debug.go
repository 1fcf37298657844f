// Package debug provides debug-build assertions. Each Assert* compiles to a
// no-op unless the `debug` build tag is set.
/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package debug

import (
	"fmt"

	"k8s.io/klog/v2"
)

func failf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	klog.ErrorDepth(2, msg)
	panic(msg)
}
