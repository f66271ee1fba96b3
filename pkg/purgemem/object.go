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

// Package purgemem implements purgeable memory objects: anonymous
// regions the kernel may reclaim under memory pressure, whose content is
// lazily re-materialized on next access by replaying a caller-supplied
// chain of modification steps against a freshly zeroed buffer.
package purgemem

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"purgemem/pkg/atomicbitops"
	"purgemem/pkg/builder"
	"purgemem/pkg/hostarch"
	"purgemem/pkg/log"
	"purgemem/pkg/memutil"
	"purgemem/pkg/purgeerr"
	"purgemem/pkg/purgeflags"
	"purgemem/pkg/purgeplatform"
	"purgemem/pkg/sync"
	"purgemem/pkg/uxpt"
)

// uxptErrLogger rate-limits the warnings logged by pin/unpin failures. A
// purge storm can drive BeginRead/EndRead across many objects in a tight
// loop; without throttling, a persistent UXPT failure would flood the log
// once per access instead of once per window.
var uxptErrLogger = log.BasicRateLimitedLogger(time.Second)

// Object is a purgeable memory region backed by an mmap'd data mapping
// and a UXPT table covering it. Content is defined by replaying a
// builder.Chain against a zeroed buffer. Create builds the content once;
// after that, the replay happens lazily, the first time the object is
// accessed after the kernel reclaims its pages.
//
// The zero value is not usable; Objects are only produced by Create.
type Object struct {
	lock sync.RWMutex

	// data is the full rounded-up mapping. Only data[:size] is ever
	// exposed to callers or passed to builder steps.
	data     []byte
	dataAddr uintptr
	size     int

	table      uxpt.Table
	chain      builder.Chain
	buildCount atomicbitops.Uint64

	// purgeForced is set by SimulatePurge and cleared by the next
	// successful rebuild.
	purgeForced atomicbitops.Bool
}

// Create maps a purgeable region of size bytes, builds its initial
// content by running fn(buf, size, param) once against the zeroed
// mapping, and records fn as the first step of the object's builder
// chain. It returns nil if size is zero, fn is nil, or any allocation
// step fails; on failure, any resource already acquired is released
// before returning.
func Create(size int, fn builder.ModifyFunc, param any) *Object {
	if size <= 0 || fn == nil {
		return nil
	}

	mapSize := hostarch.MustPageRoundUp(uintptr(size))
	flags := uintptr(unix.MAP_ANONYMOUS)
	if purgeplatform.Supported() {
		flags |= purgeflags.MapPurgeable
	} else {
		flags |= unix.MAP_PRIVATE
	}

	data, err := memutil.MapSlice(0, mapSize, unix.PROT_READ|unix.PROT_WRITE, flags, ^uintptr(0), 0)
	if err != nil {
		log.Warningf("purgemem: Create: mmap data region: %v", err)
		return nil
	}
	dataAddr := uintptr(unsafe.Pointer(unsafe.SliceData(data)))

	o := &Object{
		data:     data,
		dataAddr: dataAddr,
		size:     size,
	}

	if err := o.table.Init(dataAddr, mapSize); err != nil {
		log.Warningf("purgemem: Create: uxpt init: %v", err)
		if uerr := memutil.UnmapSlice(data); uerr != nil {
			log.Warningf("purgemem: Create: unwind unmap data: %v", uerr)
		}
		return nil
	}

	if !fn(o.data[:o.size], o.size, param) {
		log.Warningf("purgemem: Create: initial build step failed")
		o.unwindAfterTableInit()
		return nil
	}
	if aerr := o.chain.Append(fn, param); aerr != nil {
		log.Warningf("purgemem: Create: recording initial build step: %v", aerr)
		o.unwindAfterTableInit()
		return nil
	}

	o.buildCount.Store(1)
	return o
}

func (o *Object) unwindAfterTableInit() {
	if err := o.table.Deinit(); err != nil {
		log.Warningf("purgemem: Create: unwind uxpt deinit: %v", err)
	}
	if err := memutil.UnmapSlice(o.data); err != nil {
		log.Warningf("purgemem: Create: unwind unmap data: %v", err)
	}
}

// Destroy releases every resource owned by o: its builder chain, data
// mapping, and UXPT table, in that order. It is idempotent on a nil
// receiver, returning true without side effects. It returns true only if
// every release step succeeded; a partial failure is logged and o's
// descriptor is not considered released (to avoid compounding a leak
// with use-after-free on a half-torn-down object).
func (o *Object) Destroy() bool {
	if o == nil {
		return true
	}

	ok := true
	o.chain.Destroy()

	if err := memutil.UnmapSlice(o.data); err != nil {
		log.Warningf("purgemem: Destroy: unmap data: %v", err)
		ok = false
	}

	if purgeplatform.Supported() && o.table.IsPresent(o.dataAddr, uintptr(o.size)) {
		log.Warningf("purgemem: Destroy: uxpt still reports present after data was unmapped")
		ok = false
	}

	if err := o.table.Deinit(); err != nil {
		log.Warningf("purgemem: Destroy: uxpt deinit: %v", err)
		ok = false
	}

	return ok
}

// purged reports whether o's content must be rebuilt before it can be
// read or written: either it has never been built, SimulatePurge has
// forced it, or the kernel has reclaimed at least one of its pages since
// the last build. On a kernel without UXPT support, table.IsPresent always
// reports true, so this collapses to "never been built or forced".
func (o *Object) purged() bool {
	return o.buildCount.Load() == 0 || o.purgeForced.Load() || !o.table.IsPresent(o.dataAddr, uintptr(o.size))
}

func (o *Object) pin()   { logUXPTErr("Get", o.table.Get(o.dataAddr, uintptr(o.size))) }
func (o *Object) unpin() { logUXPTErr("Put", o.table.Put(o.dataAddr, uintptr(o.size))) }

// logUXPTErr takes *purgeerr.Error, not error: a nil *purgeerr.Error
// boxed into the error interface is a non-nil interface value, so a
// plain error-typed parameter would log on every successful call.
func logUXPTErr(op string, err *purgeerr.Error) {
	if err != nil {
		uxptErrLogger.Warningf("purgemem: uxpt %s: %v", op, err)
	}
}

func (o *Object) rebuildLocked() bool {
	if !o.purged() {
		return true
	}
	clear(o.data[:o.size])
	if !o.chain.BuildAll(o.data[:o.size], o.size) {
		return false
	}
	o.purgeForced.Store(false)
	o.buildCount.Add(1)
	return true
}

// BeginRead pins o's content against reclaim and acquires its read lock.
// It returns true iff the caller now holds the read lock and may read
// content through GetContent; on false, no lock is held and the caller
// must not call EndRead.
func (o *Object) BeginRead() bool {
	o.pin()
	for {
		o.lock.RLock()
		if !o.purged() {
			return true
		}
		o.lock.RUnlock()

		o.lock.Lock()
		built := o.rebuildLocked()
		o.lock.Unlock()
		if !built {
			o.unpin()
			return false
		}
		// A successful rebuild (ours or a racing writer's) moved the
		// object from purged to not-purged; retry the fast path.
	}
}

// EndRead releases the read lock acquired by a successful BeginRead and
// unpins o's content.
func (o *Object) EndRead() {
	o.lock.RUnlock()
	o.unpin()
}

// BeginWrite pins o's content against reclaim and acquires its write
// lock. It returns true iff the caller now holds the write lock; on
// false, no lock is held and the caller must not call EndWrite.
func (o *Object) BeginWrite() bool {
	o.pin()
	o.lock.Lock()
	if !o.rebuildLocked() {
		o.lock.Unlock()
		o.unpin()
		return false
	}
	return true
}

// EndWrite releases the write lock acquired by a successful BeginWrite
// and unpins o's content.
func (o *Object) EndWrite() {
	o.lock.Unlock()
	o.unpin()
}

// GetContent returns o's content buffer. The returned slice is valid for
// the caller only between a successful BeginRead/BeginWrite and its
// matching EndRead/EndWrite.
func (o *Object) GetContent() []byte {
	if o == nil {
		return nil
	}
	return o.data[:o.size]
}

// GetContentSize returns the size in bytes of o's content.
func (o *Object) GetContentSize() int {
	if o == nil {
		return 0
	}
	return o.size
}

// AppendModify applies fn once to o's live content buffer and, on
// success, appends (fn, param) to o's builder chain so that future
// rebuilds replay it. AppendModify takes no lock of its own: callers
// must serialize AppendModify against any concurrent BeginRead/
// EndRead/BeginWrite/EndWrite on the same object.
func (o *Object) AppendModify(fn builder.ModifyFunc, param any) bool {
	if fn == nil {
		return false
	}
	if !fn(o.data[:o.size], o.size, param) {
		return false
	}
	if err := o.chain.Append(fn, param); err != nil {
		log.Warningf("purgemem: AppendModify: recording step: %v", err)
		return false
	}
	return true
}

// BuildCount returns the number of times o's content has been
// (re)built, including the initial build performed by Create.
func (o *Object) BuildCount() uint64 {
	return o.buildCount.Load()
}

// SimulatePurge forces o into the purged state without waiting for
// actual kernel reclaim: it zeroes the live buffer and marks o as purged,
// so that the next BeginRead/BeginWrite rebuilds from the chain and
// increments the build count. It exists for diagnostics and demonstration
// (see cmd/purgememctl's "demo" subcommand); library callers doing real
// work never need it, since real reclaim drives the same state transition.
func (o *Object) SimulatePurge() {
	clear(o.data[:o.size])
	o.purgeForced.Store(true)
}
