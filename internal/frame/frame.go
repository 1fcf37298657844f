// Package frame defines the machine-context frame a suspended cothread leaves
// at its stack pointer: one word per callee-saved register plus the return
// address on top. The layout is the single place that knows the reference ABI
// (8-byte words, little-endian, downward-growing stack, 6 callee-saved
// registers).
/*
 * Copyright (c) 2024-2025, CRZ Lab. All rights reserved.
 */
package frame

import "encoding/binary"

const (
	WordSize        = 8
	CalleeSavedRegs = 6

	Words = CalleeSavedRegs + 1
	Bytes = Words * WordSize

	retOff = CalleeSavedRegs * WordSize
)

// Put lays down a suspended frame over span, which must be exactly Bytes long
// and correspond to [sp, sp+Bytes). Top-to-bottom: the return address, then a
// zero word per callee-saved register.
func Put(span []byte, ret uintptr) {
	_ = span[Bytes-1]
	clear(span[:retOff])
	binary.LittleEndian.PutUint64(span[retOff:Bytes], uint64(ret))
}

// Ret reads the return-address word of the frame at span.
func Ret(span []byte) uintptr {
	return uintptr(binary.LittleEndian.Uint64(span[retOff:Bytes]))
}
