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
	"unsafe"

	"purgemem/pkg/atomicbitops"
)

// unsafeUint64Slice returns a []atomicbitops.Uint64 of length n backed by
// the memory at addr, which must remain mapped and valid for the lifetime
// of the returned slice.
func unsafeUint64Slice(addr uintptr, n int) []atomicbitops.Uint64 {
	return unsafe.Slice((*atomicbitops.Uint64)(unsafe.Pointer(addr)), n)
}
