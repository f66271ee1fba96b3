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

package uxpt

import (
	"testing"

	"purgemem/pkg/atomicbitops"
	"purgemem/pkg/hostarch"
	"purgemem/pkg/purgeerr"
	"purgemem/pkg/purgeflags"
	"purgemem/pkg/purgeplatform"
)

// On any machine that doesn't implement the purgeable-mapping/UXPT
// kernel facility, purgeplatform.Supported reports false and every
// Table degrades to a no-op fallback. These tests exercise that
// fallback contract, which is what actually runs in CI.
func TestFallbackWhenUnsupported(t *testing.T) {
	if purgeplatform.Supported() {
		t.Skip("this test requires a kernel without purgeable mapping support")
	}

	var tbl Table
	const size = 4 * hostarch.PageSize
	if err := tbl.Init(0x1000, size); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer func() {
		if err := tbl.Deinit(); err != nil {
			t.Errorf("Deinit: %v", err)
		}
	}()

	if got, want := tbl.Size(), uintptr(0); got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
	if !tbl.IsPresent(0x1000, size) {
		t.Errorf("IsPresent = false, want true in fallback mode")
	}
	if err := tbl.Get(0x1000, size); err != nil {
		t.Errorf("Get: %v, want nil (no-op)", err)
	}
	if err := tbl.Put(0x1000, size); err != nil {
		t.Errorf("Put: %v, want nil (no-op)", err)
	}
	if err := tbl.Clear(0x1000, size); err != nil {
		t.Errorf("Clear: %v, want nil (no-op)", err)
	}
}

// newFakeTable builds a Table backed by ordinary Go-allocated memory
// instead of a real UXPT mmap, so that the CAS-loop and range-check
// logic can be exercised deterministically regardless of whether the
// machine running the test has UXPT support.
func newFakeTable(numPages int) (*Table, uintptr) {
	const dataAddr = 0x10000
	tbl := &Table{
		enabled:  true,
		dataAddr: dataAddr,
		dataSize: uintptr(numPages) * hostarch.PageSize,
		entries:  make([]atomicbitops.Uint64, numPages),
	}
	return tbl, dataAddr
}

func TestGetPutRoundTrip(t *testing.T) {
	tbl, dataAddr := newFakeTable(2)

	if err := tbl.Get(dataAddr, 2*hostarch.PageSize); err != nil {
		t.Fatalf("Get: %v", err)
	}
	for i := range tbl.entries {
		if got, want := tbl.entries[i].Load(), uint64(purgeflags.RefcntOne); got != want {
			t.Errorf("entries[%d] = %d, want %d", i, got, want)
		}
	}

	if err := tbl.Put(dataAddr, 2*hostarch.PageSize); err != nil {
		t.Fatalf("Put: %v", err)
	}
	for i := range tbl.entries {
		if got := tbl.entries[i].Load(); got != 0 {
			t.Errorf("entries[%d] = %d, want 0 after matching Put", i, got)
		}
	}
}

func TestGetYieldsOnReclaimSentinel(t *testing.T) {
	tbl, dataAddr := newFakeTable(1)
	tbl.entries[0].Store(purgeflags.UnderReclaim)

	done := make(chan struct{})
	go func() {
		if err := tbl.Get(dataAddr, hostarch.PageSize); err != nil {
			t.Errorf("Get: %v", err)
		}
		close(done)
	}()

	// Clear the sentinel so Get's retry loop can observe a non-sentinel
	// value and make progress.
	tbl.entries[0].Store(0)
	<-done

	if got, want := tbl.entries[0].Load(), uint64(purgeflags.RefcntOne); got != want {
		t.Errorf("entries[0] = %d, want %d", got, want)
	}
}

func TestOutOfRangeRejected(t *testing.T) {
	tbl, dataAddr := newFakeTable(1)

	if err := tbl.Get(dataAddr+2*hostarch.PageSize, hostarch.PageSize); err == nil {
		t.Fatalf("Get on out-of-range address succeeded, want error")
	} else if err.Code() != purgeerr.UXPTOutRange {
		t.Errorf("err.Code() = %v, want %v", err.Code(), purgeerr.UXPTOutRange)
	}

	for i := range tbl.entries {
		if got := tbl.entries[i].Load(); got != 0 {
			t.Errorf("entries[%d] = %d, want 0 (out-of-range op must not touch entries)", i, got)
		}
	}
}

func TestIsPresentRequiresEveryPage(t *testing.T) {
	tbl, dataAddr := newFakeTable(2)
	tbl.entries[0].Store(purgeflags.PresentBit)
	// entries[1] left at 0: not present.

	if tbl.IsPresent(dataAddr, 2*hostarch.PageSize) {
		t.Errorf("IsPresent = true, want false when any page lacks the present bit")
	}
	if !tbl.IsPresent(dataAddr, hostarch.PageSize) {
		t.Errorf("IsPresent over just the first page = false, want true")
	}
}
