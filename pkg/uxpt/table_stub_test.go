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

package uxpt

import (
	"testing"

	"purgemem/pkg/hostarch"
	"purgemem/pkg/purgeerr"
)

func TestStubIsAlwaysPresent(t *testing.T) {
	var tbl Table
	const size = 2 * hostarch.PageSize
	if err := tbl.Init(0x2000, size); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := tbl.Get(0x2000, size); err != nil {
		t.Errorf("Get: %v, want nil", err)
	}
	if !tbl.IsPresent(0x2000, size) {
		t.Errorf("IsPresent = false, want true")
	}
	if got, want := tbl.Size(), uintptr(0); got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
	if err := tbl.Deinit(); err != nil {
		t.Errorf("Deinit: %v", err)
	}
}

func TestStubOutOfRangeRejected(t *testing.T) {
	var tbl Table
	if err := tbl.Init(0x2000, hostarch.PageSize); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := tbl.Get(0x9000, hostarch.PageSize); err == nil {
		t.Fatalf("Get on out-of-range address succeeded, want error")
	} else if err.Code() != purgeerr.UXPTOutRange {
		t.Errorf("err.Code() = %v, want %v", err.Code(), purgeerr.UXPTOutRange)
	}
}
