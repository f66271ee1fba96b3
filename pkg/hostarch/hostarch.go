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

// Package hostarch describes the address space and page properties of the
// host architecture, as distinct from the architecture of whatever kind of
// application may be running underneath.
package hostarch

import "fmt"

const (
	// PageShift is the binary log of the system page size, in bytes.
	PageShift = 12

	// PageSize is the system page size, in bytes.
	PageSize = 1 << PageShift

	// PageMask is a mask for the page offset of an address.
	PageMask = PageSize - 1

	// HugePageShift is the binary log of the system huge page size, in bytes.
	HugePageShift = PageShift + (PageShift - 3)

	// HugePageSize is the system huge page size, in bytes.
	HugePageSize = 1 << HugePageShift

	// HugePageMask is a mask for the huge-page offset of an address.
	HugePageMask = HugePageSize - 1
)

// Addr represents a virtual address in a generic address space.
//
// It is named Addr, rather than VirtualAddress, for consistency with
// usermem.Addr (which this type historically mirrored).
type Addr uintptr

// PageRoundDown returns v rounded down to the nearest page boundary.
func PageRoundDown(v uintptr) uintptr {
	return v &^ PageMask
}

// PageRoundUp returns v rounded up to the nearest page boundary. ok is false
// if rounding up overflows a uintptr.
func PageRoundUp(v uintptr) (addr uintptr, ok bool) {
	addr = PageRoundDown(v + PageMask)
	ok = addr >= v
	return
}

// MustPageRoundUp is equivalent to PageRoundUp, but panics if rounding up
// overflows a uintptr. It should only be used when v is known to be small
// enough not to overflow.
func MustPageRoundUp(v uintptr) uintptr {
	addr, ok := PageRoundUp(v)
	if !ok {
		panic(fmt.Sprintf("hostarch.PageRoundUp(%#x) overflows uintptr", v))
	}
	return addr
}

// IsPageAligned returns true if v is aligned to a page boundary.
func IsPageAligned(v uintptr) bool {
	return v&PageMask == 0
}

// RoundDown returns the address rounded down to the nearest page boundary.
func (v Addr) RoundDown() Addr {
	return Addr(PageRoundDown(uintptr(v)))
}

// RoundUp returns the address rounded up to the nearest page boundary. ok is
// false if rounding up wrapped around.
func (v Addr) RoundUp() (addr Addr, ok bool) {
	a, ok := PageRoundUp(uintptr(v))
	return Addr(a), ok
}

// MustRoundUp is equivalent to RoundUp, but panics if rounding up wraps
// around.
func (v Addr) MustRoundUp() Addr {
	return Addr(MustPageRoundUp(uintptr(v)))
}

// IsPageAligned returns true if v is aligned to a page boundary.
func (v Addr) IsPageAligned() bool {
	return IsPageAligned(uintptr(v))
}

// HugeRoundDown returns the address rounded down to the nearest huge page
// boundary.
func (v Addr) HugeRoundDown() Addr {
	return v & ^Addr(HugePageSize-1)
}

// HugeRoundUp returns the address rounded up to the nearest huge page
// boundary. ok is true iff rounding up did not wrap around.
func (v Addr) HugeRoundUp() (addr Addr, ok bool) {
	addr = Addr(v + HugePageSize - 1).HugeRoundDown()
	ok = addr >= v
	return
}
