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

// Package purgeflags holds the platform-specific mmap flag constants for
// purgeable mappings and the user-extended page table (UXPT), shared by
// purgeplatform (which probes for their support) and uxpt (which uses
// them on every mapping once support is established).
package purgeflags

// MapPurgeable and MapUserExpte are mmap flags that, as of this writing,
// are not defined by golang.org/x/sys/unix because the kernel facility
// they describe isn't present on stock Linux. The values below match the
// bit positions the facility is expected to occupy if present; on a
// kernel that doesn't recognize them, any mmap using them fails — the
// signal purgeplatform.Supported's probe uses to decide whether to
// enable UXPT support at all.
const (
	// MapPurgeable marks an anonymous mapping as reclaimable by the
	// kernel under memory pressure, rather than swapped or pinned.
	MapPurgeable = 0x00040000

	// MapUserExpte selects the user-extended page table window mapping
	// instead of an ordinary data mapping. It is only meaningful when
	// MapPurgeable mappings are also supported.
	MapUserExpte = 0x00080000
)

const (
	// EntrySize is the size in bytes of one UXPT entry.
	EntrySize = 8

	// EntryShift is the binary log of EntrySize.
	EntryShift = 3

	// RefcntOne is the unit of refcount increment/decrement. Bit 0 of an
	// entry is the kernel-maintained present bit; the refcount occupies
	// the bits above it, so every refcount update moves in units of 2.
	RefcntOne = 2

	// UnderReclaim is the sentinel value an entry holds while the kernel
	// is in the process of reclaiming the page it describes, encoded as
	// the two's-complement negation of RefcntOne.
	UnderReclaim = ^uint64(RefcntOne - 1)

	// PresentBit is the present bit within an entry.
	PresentBit = 1
)
