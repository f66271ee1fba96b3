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

//go:build !purgemem_nouxpt

// Package uxpt implements the user-extended page table protocol: a
// kernel-mapped array of one 64-bit entry per data page, carrying a
// userspace-maintained refcount and a kernel-maintained present bit.
//
// When purgeplatform reports that the running kernel lacks UXPT support,
// every Table degrades to a no-op: Init/Deinit succeed trivially,
// Get/Put/Clear are no-ops, and IsPresent always reports true. Building
// with the purgemem_nouxpt tag skips this runtime probe entirely and
// links table_stub.go instead, which never imports the mmap/CAS
// machinery at all.
package uxpt

import (
	"runtime"

	"golang.org/x/sys/unix"

	"purgemem/pkg/atomicbitops"
	"purgemem/pkg/hostarch"
	"purgemem/pkg/log"
	"purgemem/pkg/memutil"
	"purgemem/pkg/purgeerr"
	"purgemem/pkg/purgeflags"
	"purgemem/pkg/purgeplatform"
)

const entriesPerPage = hostarch.PageSize / purgeflags.EntrySize

// Table owns the mapping of the UXPT window covering a data region, and
// offers atomic get/put/clear/is-present operations over sub-ranges of
// that region.
type Table struct {
	// enabled caches purgeplatform.Supported() at Init time so that a
	// Table's behavior doesn't change mid-lifetime if some other part of
	// the process were (hypothetically) probing concurrently.
	enabled bool

	dataAddr uintptr
	dataSize uintptr

	// mapAddr/mapLen describe the raw UXPT window mapping; entries is a
	// []atomicbitops.Uint64 view over the same memory, in which
	// entries[entrySkew+i] corresponds to the page at dataAddr+i*PageSize.
	mapAddr uintptr
	mapLen  uintptr
	entries []atomicbitops.Uint64

	// entrySkew is the number of leading entries in the mapped window
	// that precede dataAddr's own page (because the window is mapped at
	// a UXPT-page granularity, it may start before dataAddr).
	entrySkew uintptr
}

// uxptPageNo returns the number of the UXPT page that holds the entry for
// the data page containing v.
func uxptPageNo(v uintptr) uintptr {
	return (v >> hostarch.PageShift) >> (hostarch.PageShift - purgeflags.EntryShift)
}

func entryIndexInUXPTPage(v uintptr) uintptr {
	return (v >> hostarch.PageShift) & (entriesPerPage - 1)
}

// Init maps the UXPT window covering [dataAddr, dataAddr+dataSize) and
// zero-initializes every entry. dataAddr and dataSize must be page
// aligned; dataSize must be a multiple of the page size.
func (t *Table) Init(dataAddr, dataSize uintptr) *purgeerr.Error {
	t.dataAddr = dataAddr
	t.dataSize = dataSize
	t.enabled = purgeplatform.Supported()

	if !t.enabled {
		return nil
	}

	numPages := dataSize / hostarch.PageSize
	t.entrySkew = entryIndexInUXPTPage(dataAddr)
	spanBytes := (t.entrySkew + numPages) * purgeflags.EntrySize
	t.mapLen = hostarch.MustPageRoundUp(spanBytes)

	offset := uxptPageNo(dataAddr) * hostarch.PageSize
	addr, err := memutil.MapFile(0, t.mapLen, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANONYMOUS|purgeflags.MapUserExpte, ^uintptr(0), offset)
	if err != nil {
		return purgeerr.Errorf(purgeerr.MMAPUXPTFail, "mmap uxpt window: %v", err)
	}
	t.mapAddr = addr
	t.entries = unsafeUint64Slice(addr, int(t.mapLen/purgeflags.EntrySize))

	t.clearLocked(0, dataSize, true /* initial */)
	return nil
}

// Deinit unmaps the UXPT window.
func (t *Table) Deinit() *purgeerr.Error {
	if !t.enabled {
		return nil
	}
	if _, _, errno := unix.RawSyscall6(unix.SYS_MUNMAP, t.mapAddr, t.mapLen, 0, 0, 0, 0); errno != 0 {
		return purgeerr.Errorf(purgeerr.UnmapUXPTFail, "munmap uxpt window: %v", errno)
	}
	t.entries = nil
	return nil
}

// Size returns the byte size of the table's mapped descriptor, for
// allocator sizing.
func (t *Table) Size() uintptr {
	if !t.enabled {
		return 0
	}
	return t.mapLen
}

func (t *Table) inRange(addr, length uintptr) bool {
	if length == 0 {
		return addr >= t.dataAddr && addr <= t.dataAddr+t.dataSize
	}
	end := addr + length
	return addr >= t.dataAddr && end <= t.dataAddr+t.dataSize && end >= addr
}

func (t *Table) pageIndex(addr uintptr) uintptr {
	return t.entrySkew + (addr-t.dataAddr)/hostarch.PageSize
}

// Get increments the refcount by RefcntOne on every page in the rounded
// range [addr, addr+len).
func (t *Table) Get(addr, length uintptr) *purgeerr.Error {
	if !t.enabled {
		return nil
	}
	if !t.inRange(addr, length) {
		return purgeerr.New(purgeerr.UXPTOutRange, "Get: range out of bounds")
	}
	start := hostarch.PageRoundDown(addr)
	end := hostarch.MustPageRoundUp(addr + length)
	for p := start; p < end; p += hostarch.PageSize {
		entry := &t.entries[t.pageIndex(p)]
		for {
			old := entry.Load()
			if old == purgeflags.UnderReclaim {
				runtime.Gosched()
				continue
			}
			next := old + purgeflags.RefcntOne
			if next < old {
				// Overflow: abort this page's increment rather than wrap
				// the refcount around to a small positive value.
				break
			}
			if entry.CompareAndSwap(old, next) {
				break
			}
		}
	}
	return nil
}

// Put decrements the refcount by RefcntOne on every page in the rounded
// range [addr, addr+len).
func (t *Table) Put(addr, length uintptr) *purgeerr.Error {
	if !t.enabled {
		return nil
	}
	if !t.inRange(addr, length) {
		return purgeerr.New(purgeerr.UXPTOutRange, "Put: range out of bounds")
	}
	start := hostarch.PageRoundDown(addr)
	end := hostarch.MustPageRoundUp(addr + length)
	for p := start; p < end; p += hostarch.PageSize {
		entry := &t.entries[t.pageIndex(p)]
		for {
			old := entry.Load()
			next := old - purgeflags.RefcntOne
			if entry.CompareAndSwap(old, next) {
				break
			}
		}
	}
	return nil
}

// Clear stores zero into every entry in the rounded range [addr,
// addr+len). A Warning is logged for any entry found non-zero, since
// Clear is only expected to run over fresh (just-mapped) ranges.
func (t *Table) Clear(addr, length uintptr) *purgeerr.Error {
	if !t.enabled {
		return nil
	}
	if !t.inRange(addr, length) {
		return purgeerr.New(purgeerr.UXPTOutRange, "Clear: range out of bounds")
	}
	t.clearLocked(addr-t.dataAddr, length, false)
	return nil
}

func (t *Table) clearLocked(relOffset, length uintptr, initial bool) {
	start := hostarch.PageRoundDown(relOffset)
	end := hostarch.MustPageRoundUp(relOffset + length)
	for p := start; p < end; p += hostarch.PageSize {
		entry := &t.entries[t.entrySkew+p/hostarch.PageSize]
		if old := entry.Swap(0); old != 0 && !initial {
			log.Warningf("uxpt: Clear found non-zero entry %#x at offset %#x", old, p)
		}
	}
}

// IsPresent reports whether every page entry in the rounded range [addr,
// addr+len) has the present bit set.
func (t *Table) IsPresent(addr, length uintptr) bool {
	if !t.enabled {
		return true
	}
	if !t.inRange(addr, length) {
		return false
	}
	start := hostarch.PageRoundDown(addr)
	end := hostarch.MustPageRoundUp(addr + length)
	for p := start; p < end; p += hostarch.PageSize {
		entry := &t.entries[t.pageIndex(p)]
		if entry.Load()&purgeflags.PresentBit == 0 {
			return false
		}
	}
	return true
}
