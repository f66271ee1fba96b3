// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build purgemem_nouxpt

// Package uxpt, built with the purgemem_nouxpt tag, stubs out the UXPT
// facility entirely: no mmap, no CAS loop, no dependency on
// purgeplatform. Every Table behaves as if the kernel facility were
// compiled out of existence, so that a build with this tag never links
// the raw-syscall/atomics machinery the real implementation needs.
package uxpt

import "purgemem/pkg/purgeerr"

// Table is the compiled-out stand-in for the real UXPT table. Every
// method is a no-op; pages are always considered present and refcounts
// are not tracked at all.
type Table struct {
	dataAddr uintptr
	dataSize uintptr
}

// Init records the covered range and otherwise does nothing.
func (t *Table) Init(dataAddr, dataSize uintptr) *purgeerr.Error {
	t.dataAddr = dataAddr
	t.dataSize = dataSize
	return nil
}

// Deinit is a no-op.
func (t *Table) Deinit() *purgeerr.Error { return nil }

// Size always reports zero: there is no mapped descriptor to size.
func (t *Table) Size() uintptr { return 0 }

func (t *Table) inRange(addr, length uintptr) bool {
	if length == 0 {
		return addr >= t.dataAddr && addr <= t.dataAddr+t.dataSize
	}
	end := addr + length
	return addr >= t.dataAddr && end <= t.dataAddr+t.dataSize && end >= addr
}

// Get is a no-op.
func (t *Table) Get(addr, length uintptr) *purgeerr.Error {
	if !t.inRange(addr, length) {
		return purgeerr.New(purgeerr.UXPTOutRange, "Get: range out of bounds")
	}
	return nil
}

// Put is a no-op.
func (t *Table) Put(addr, length uintptr) *purgeerr.Error {
	if !t.inRange(addr, length) {
		return purgeerr.New(purgeerr.UXPTOutRange, "Put: range out of bounds")
	}
	return nil
}

// Clear is a no-op.
func (t *Table) Clear(addr, length uintptr) *purgeerr.Error {
	if !t.inRange(addr, length) {
		return purgeerr.New(purgeerr.UXPTOutRange, "Clear: range out of bounds")
	}
	return nil
}

// IsPresent always reports true: with UXPT compiled out, pages are
// never considered reclaimed, regardless of the range queried.
func (t *Table) IsPresent(addr, length uintptr) bool {
	return true
}
