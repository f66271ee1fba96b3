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

package memutil

import (
	"golang.org/x/sys/unix"
)

// MapFile maps a region of fd (or an anonymous region if fd is -1) into
// the caller's address space and returns the resulting address.
//
// MapFile uses unix.RawSyscall6 directly, rather than unix.Mmap, because
// callers (notably pkg/uxpt) need to pass mmap flags — such as a kernel's
// purgeable-mapping or user-extended-page-table flags — that
// golang.org/x/sys/unix does not expose named constants for.
func MapFile(addr, size, prot, flags, fd, offset uintptr) (uintptr, error) {
	addr, _, errno := unix.RawSyscall6(unix.SYS_MMAP, addr, size, prot, flags, fd, offset)
	if errno != 0 {
		return 0, errno
	}
	return addr, nil
}
